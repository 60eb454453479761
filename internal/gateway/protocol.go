package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

// Inbound frame types.
const (
	FrameText   = "text"
	FrameSelect = "select"
	FrameCancel = "cancel"
	FrameVoice  = "voice"
)

// Outbound frame types.
const (
	FramePrompt  = "prompt"
	FrameError   = "error"
	FrameSession = "session"
)

const defaultAudioName = "voice.webm"

// ClientFrame is a message sent by a websocket client. Audio is base64 in JSON.
type ClientFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Token string `json:"token,omitempty"`
	Audio []byte `json:"audio,omitempty"`
	Name  string `json:"name,omitempty"`
}

// PromptFrame carries a dialog prompt to the client.
type PromptFrame struct {
	Type    string         `json:"type"`
	Text    string         `json:"text"`
	Choices []comms.Choice `json:"choices,omitempty"`
}

// ErrorFrame reports a rejected client frame.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionFrame is the first frame of every connection.
type SessionFrame struct {
	Type           string `json:"type"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
}

var errEmptyFrame = errors.New("frame has no content")

// ParseClientFrame decodes a raw websocket message.
func ParseClientFrame(data []byte) (ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return ClientFrame{}, fmt.Errorf("invalid frame: %w", err)
	}
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	return f, nil
}

// Event converts the frame into a dialog event for conversationID.
func (f ClientFrame) Event(conversationID string) (dialog.Event, error) {
	switch f.Type {
	case FrameText:
		if strings.TrimSpace(f.Text) == "" {
			return dialog.Event{}, errEmptyFrame
		}
		return dialog.TextEvent(conversationID, f.Text), nil
	case FrameSelect:
		ev, ok := dialog.SelectEvent(conversationID, f.Token)
		if !ok {
			return dialog.Event{}, fmt.Errorf("invalid choice token %q", f.Token)
		}
		return ev, nil
	case FrameCancel:
		return dialog.CancelEvent(conversationID), nil
	case FrameVoice:
		if len(f.Audio) == 0 {
			return dialog.Event{}, errEmptyFrame
		}
		name := f.Name
		if name == "" {
			name = defaultAudioName
		}
		return dialog.VoiceEvent(conversationID, transcription.Audio{Name: name, Data: f.Audio}), nil
	default:
		return dialog.Event{}, fmt.Errorf("unknown frame type %q", f.Type)
	}
}

func promptFrame(p comms.Prompt) PromptFrame {
	return PromptFrame{Type: FramePrompt, Text: p.Text, Choices: p.Choices}
}
