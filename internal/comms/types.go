// Package comms defines the transport-neutral outbound message contract
// shared by the dialog engine and every chat adapter.
package comms

import (
	"context"
	"strings"
)

// Choice is one selectable option of a prompt. Token is opaque to the user
// and comes back in the selection event.
type Choice struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Prompt is an outbound message, optionally paired with an ordered choice list.
type Prompt struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices,omitempty"`
}

// HasChoices reports whether the prompt carries a choice list.
func (p Prompt) HasChoices() bool {
	return len(p.Choices) > 0
}

// Sink delivers prompts to a conversation.
type Sink interface {
	Send(ctx context.Context, conversationID string, p Prompt) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, conversationID string, p Prompt) error

// Send implements Sink.
func (f SinkFunc) Send(ctx context.Context, conversationID string, p Prompt) error {
	return f(ctx, conversationID, p)
}

// ConversationID joins a transport name and a transport-local id,
// e.g. "telegram:123456".
func ConversationID(transport, localID string) string {
	return transport + ":" + localID
}

// SplitConversationID is the inverse of ConversationID.
func SplitConversationID(conversationID string) (transport, localID string, ok bool) {
	return strings.Cut(conversationID, ":")
}
