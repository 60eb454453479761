package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/alekspetrov/weeekbot/internal/comms"
)

const (
	maxMessageLength = 4096
	maxButtonLength  = 64
)

var errFilePathMissing = errors.New("file path not available")

// Messenger delivers dialog prompts to Telegram chats. It implements comms.Sink.
type Messenger struct {
	client *Client
}

// NewMessenger creates a new Telegram messenger
func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client}
}

// Send implements comms.Sink. Long text is split into several messages; the
// choices, one button per row, are attached to the last one.
func (m *Messenger) Send(ctx context.Context, conversationID string, p comms.Prompt) error {
	chatID, ok := ParseChatID(conversationID)
	if !ok {
		return fmt.Errorf("not a telegram conversation: %q", conversationID)
	}

	chunks := comms.ChunkContent(p.Text, maxMessageLength)
	for i, chunk := range chunks {
		var err error
		if i == len(chunks)-1 && p.HasChoices() {
			_, err = m.client.SendMessageWithKeyboard(ctx, chatID, chunk, "", keyboard(p.Choices))
		} else {
			_, err = m.client.SendMessage(ctx, chatID, chunk, "")
		}
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}
	return nil
}

func keyboard(choices []comms.Choice) [][]InlineKeyboardButton {
	rows := make([][]InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         comms.TruncateText(c.Label, maxButtonLength),
			CallbackData: c.Token,
		}})
	}
	return rows
}
