package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alekspetrov/weeekbot/internal/comms"
)

const writeTimeout = 10 * time.Second

// Session represents a connected client session
type Session struct {
	ID             string
	ConversationID string
	Conn           *websocket.Conn
	CreatedAt      time.Time
	mu             sync.Mutex
}

// WriteJSON sends a frame. Writes from the dialog engine and the read loop
// are serialized.
func (s *Session) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.Conn.WriteJSON(v)
}

// SessionManager tracks open websocket sessions. It implements comms.Sink
// for the "ws" transport.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Create creates a new session for a WebSocket connection
func (m *SessionManager) Create(conn *websocket.Conn) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	session := &Session{
		ID:             id,
		ConversationID: comms.ConversationID(Name, id),
		Conn:           conn,
		CreatedAt:      time.Now(),
	}
	m.sessions[id] = session
	return session
}

// Get retrieves a session by ID
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	return session, ok
}

// Remove closes and forgets a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		_ = session.Conn.Close()
		delete(m.sessions, id)
	}
}

// Count returns the number of active sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Send implements comms.Sink.
func (m *SessionManager) Send(_ context.Context, conversationID string, p comms.Prompt) error {
	transport, id, ok := comms.SplitConversationID(conversationID)
	if !ok || transport != Name {
		return fmt.Errorf("not a websocket conversation: %q", conversationID)
	}
	session, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("websocket session %s is closed", id)
	}
	return session.WriteJSON(promptFrame(p))
}
