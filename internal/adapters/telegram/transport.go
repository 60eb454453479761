package telegram

import (
	"context"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/logging"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

// Dispatcher receives dialog events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dialog.Event)
}

// Transport polls Telegram for updates and turns them into dialog events.
type Transport struct {
	client      *Client
	dispatcher  Dispatcher
	allowedIDs  map[int64]bool
	pollTimeout int

	offset int64 // next update id to fetch
	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

// NewTransport creates a new Telegram transport layer.
func NewTransport(client *Client, dispatcher Dispatcher, cfg *Config) *Transport {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	allowed := make(map[int64]bool, len(cfg.AllowedIDs))
	for _, id := range cfg.AllowedIDs {
		allowed[id] = true
	}
	return &Transport{
		client:      client,
		dispatcher:  dispatcher,
		allowedIDs:  allowed,
		pollTimeout: cfg.PollTimeout,
		stopCh:      make(chan struct{}),
		log:         logging.WithComponent("telegram"),
	}
}

// StartPolling begins the long-polling loop in a goroutine.
func (t *Transport) StartPolling(ctx context.Context) {
	t.wg.Add(1)
	go t.pollLoop(ctx)
}

// Stop gracefully stops the polling loop.
func (t *Transport) Stop() {
	close(t.stopCh)
	t.wg.Wait()
}

func (t *Transport) pollLoop(ctx context.Context) {
	defer t.wg.Done()

	t.log.Debug("Transport poll loop started")
	for {
		select {
		case <-ctx.Done():
			t.log.Debug("Transport poll loop stopped")
			return
		case <-t.stopCh:
			t.log.Debug("Transport poll loop stopped")
			return
		default:
			t.fetchAndProcess(ctx)
		}
	}
}

func (t *Transport) fetchAndProcess(ctx context.Context) {
	t.mu.Lock()
	offset := t.offset
	t.mu.Unlock()

	updates, err := t.client.GetUpdates(ctx, offset, t.pollTimeout)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Warn("Error fetching updates", slog.Any("error", err))
			time.Sleep(time.Second)
		}
		return
	}

	for _, update := range updates {
		t.processUpdate(ctx, update)

		t.mu.Lock()
		if update.UpdateID >= t.offset {
			t.offset = update.UpdateID + 1
		}
		t.mu.Unlock()
	}
}

func (t *Transport) allowed(chatID int64, from *User) bool {
	if len(t.allowedIDs) == 0 {
		return true
	}
	if t.allowedIDs[chatID] {
		return true
	}
	return from != nil && t.allowedIDs[from.ID]
}

func (t *Transport) processUpdate(ctx context.Context, update *Update) {
	if update.CallbackQuery != nil {
		t.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if !t.allowed(msg.Chat.ID, msg.From) {
		t.log.Debug("Ignoring message from unauthorized chat", slog.Int64("chat_id", msg.Chat.ID))
		return
	}

	conversationID := comms.ConversationID(Name, chatKey(msg.Chat.ID))

	switch {
	case msg.Voice != nil || msg.Audio != nil:
		t.handleVoice(ctx, conversationID, msg)
	case strings.TrimSpace(msg.Text) != "":
		_ = t.client.SendChatAction(ctx, msg.Chat.ID, "typing")
		t.dispatcher.Dispatch(ctx, dialog.TextEvent(conversationID, msg.Text))
	}
}

func (t *Transport) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if err := t.client.AnswerCallback(ctx, cb.ID, ""); err != nil {
		t.log.Debug("Failed to answer callback", slog.Any("error", err))
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if !t.allowed(chatID, cb.From) {
		return
	}

	ev, ok := dialog.SelectEvent(comms.ConversationID(Name, chatKey(chatID)), cb.Data)
	if !ok {
		t.log.Debug("Ignoring unknown callback data", slog.String("data", cb.Data))
		return
	}
	// The keyboard has served its purpose; keep old choices from being pressed again.
	if err := t.client.RemoveKeyboard(ctx, chatID, cb.Message.MessageID); err != nil {
		t.log.Debug("Failed to remove keyboard", slog.Any("error", err))
	}
	t.dispatcher.Dispatch(ctx, ev)
}

func (t *Transport) handleVoice(ctx context.Context, conversationID string, msg *Message) {
	voice := msg.Voice
	if voice == nil {
		voice = msg.Audio
	}
	t.log.Debug("Received voice",
		slog.String("conversation_id", conversationID),
		slog.Int("duration", voice.Duration))

	_ = t.client.SendChatAction(ctx, msg.Chat.ID, "record_voice")

	fileID := voice.FileID
	t.dispatcher.Dispatch(ctx, dialog.RemoteVoiceEvent(conversationID, func(ctx context.Context) (transcription.Audio, error) {
		return t.downloadAudio(ctx, fileID)
	}))
}

func (t *Transport) downloadAudio(ctx context.Context, fileID string) (transcription.Audio, error) {
	file, err := t.client.GetFile(ctx, fileID)
	if err != nil {
		return transcription.Audio{}, err
	}
	if file.FilePath == "" {
		return transcription.Audio{}, errFilePathMissing
	}

	data, err := t.client.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return transcription.Audio{}, err
	}

	name := path.Base(file.FilePath)
	if path.Ext(name) == "" {
		name += ".oga"
	}
	return transcription.Audio{Name: name, Data: data}, nil
}

// ParseChatID extracts the chat id from a telegram conversation id.
func ParseChatID(conversationID string) (int64, bool) {
	transport, local, ok := comms.SplitConversationID(conversationID)
	if !ok || transport != Name {
		return 0, false
	}
	id, err := strconv.ParseInt(local, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
