package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/health"
	"github.com/alekspetrov/weeekbot/internal/logging"
	"github.com/alekspetrov/weeekbot/internal/metrics"
)

const (
	readLimit   = 4 << 20
	readTimeout = 10 * time.Minute
)

// Dispatcher receives dialog events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dialog.Event)
}

// Server is the HTTP gateway. It is safe for concurrent use.
type Server struct {
	config     *Config
	dispatcher Dispatcher
	sessions   *SessionManager
	checker    *health.Checker
	gatherer   prometheus.Gatherer
	onClose    func(conversationID string)
	upgrader   websocket.Upgrader
	server     *http.Server
	listener   net.Listener
	mu         sync.RWMutex
	running    bool
	log        *slog.Logger
}

// ServerOption is a functional option for configuring Server.
type ServerOption func(*Server)

// WithReadiness sets the probes reported by /readyz.
func WithReadiness(c *health.Checker) ServerOption {
	return func(s *Server) { s.checker = c }
}

// WithGatherer exposes the registry on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = g }
}

// WithOnClose registers a callback run after a websocket session ends.
func WithOnClose(fn func(conversationID string)) ServerOption {
	return func(s *Server) { s.onClose = fn }
}

// NewServer creates a new gateway server with the given configuration.
// The server is not started until Start is called.
func NewServer(config *Config, dispatcher Dispatcher, opts ...ServerOption) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Server{
		config:     config,
		dispatcher: dispatcher,
		sessions:   NewSessionManager(),
		log:        logging.WithComponent("gateway"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sessions returns the session manager, which is the comms.Sink for the
// websocket transport.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	auth := NewAuthenticator(s.config.Auth)
	r.With(auth.Middleware).Get("/ws", s.handleWebSocket)
	return r
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("Gateway starting", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Addr returns the bound address once Start has been called.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server with a 30-second timeout.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.config.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
		return
	}
	report := s.checker.Run(r.Context())
	status, code := "ready", http.StatusOK
	if !report.Ready() {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{
		"status": status,
		"checks": report.Checks,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade error", slog.Any("error", err))
		return
	}

	session := s.sessions.Create(conn)
	defer func() {
		s.sessions.Remove(session.ID)
		if s.onClose != nil {
			s.onClose(session.ConversationID)
		}
	}()

	log := s.log.With(slog.String("conversation_id", session.ConversationID))
	log.Info("New WebSocket session")

	if err := session.WriteJSON(SessionFrame{
		Type:           FrameSession,
		SessionID:      session.ID,
		ConversationID: session.ConversationID,
	}); err != nil {
		return
	}

	// Events queued for this session are dropped once it disconnects.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket error", slog.Any("error", err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := ParseClientFrame(data)
		if err == nil {
			var ev dialog.Event
			if ev, err = frame.Event(session.ConversationID); err == nil {
				s.dispatcher.Dispatch(ctx, ev)
				continue
			}
		}
		log.Debug("Rejected frame", slog.Any("error", err))
		if err := session.WriteJSON(ErrorFrame{Type: FrameError, Message: err.Error()}); err != nil {
			return
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}
