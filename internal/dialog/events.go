package dialog

import (
	"context"
	"strings"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

// EventKind is the kind of an inbound event.
type EventKind int

const (
	EventText EventKind = iota
	EventVoice
	EventSelect
	EventCancel
	EventHelp
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventVoice:
		return "voice"
	case EventSelect:
		return "select"
	case EventCancel:
		return "cancel"
	case EventHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Event is one inbound message of a conversation.
type Event struct {
	ConversationID string
	Kind           EventKind
	Text           string
	Audio          transcription.Audio

	// FetchAudio, when set, downloads the audio of a voice event. It runs
	// inside the conversation's handling, not on the transport's goroutine.
	FetchAudio AudioFetcher

	// Slot and ChoiceID are set for EventSelect.
	Slot     string
	ChoiceID string
}

// AudioFetcher loads the audio of a voice message on demand.
type AudioFetcher func(ctx context.Context) (transcription.Audio, error)

// DefaultCancelPhrases are recognized as a cancel signal when sent as the
// whole message.
var DefaultCancelPhrases = []string{"cancel", "отмена"}

// TextEvent builds a free-text event.
func TextEvent(conversationID, text string) Event {
	return Event{ConversationID: conversationID, Kind: EventText, Text: text}
}

// VoiceEvent builds a voice event.
func VoiceEvent(conversationID string, audio transcription.Audio) Event {
	return Event{ConversationID: conversationID, Kind: EventVoice, Audio: audio}
}

// RemoteVoiceEvent builds a voice event whose audio is fetched when the
// event is handled.
func RemoteVoiceEvent(conversationID string, fetch AudioFetcher) Event {
	return Event{ConversationID: conversationID, Kind: EventVoice, FetchAudio: fetch}
}

// CancelEvent builds an explicit cancel event.
func CancelEvent(conversationID string) Event {
	return Event{ConversationID: conversationID, Kind: EventCancel}
}

// SelectEvent builds a selection event from a choice token.
func SelectEvent(conversationID, token string) (Event, bool) {
	kind, id, ok := comms.ParseChoice(token)
	if !ok {
		return Event{}, false
	}
	return Event{ConversationID: conversationID, Kind: EventSelect, Slot: kind, ChoiceID: id}, true
}

// Classify turns commands and cancel phrases in a text event into the
// matching event kind. /cancel cancels; /start and /help ask for help. Other
// text, including unknown commands, stays free text. Other events are
// returned unchanged.
func Classify(ev Event, cancelPhrases []string) Event {
	if ev.Kind != EventText {
		return ev
	}
	text := strings.TrimSpace(ev.Text)

	if cmd, ok := command(text); ok {
		switch cmd {
		case "cancel":
			ev.Kind = EventCancel
			return ev
		case "start", "help":
			ev.Kind = EventHelp
			return ev
		}
	}

	for _, phrase := range cancelPhrases {
		if strings.EqualFold(text, strings.TrimSpace(phrase)) {
			ev.Kind = EventCancel
			return ev
		}
	}
	return ev
}

// command extracts the command name from "/name" or "/name@bot args".
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), name != ""
}
