package comms

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		token    string
		wantKind string
		wantID   string
		wantOK   bool
	}{
		{"assignee:u-1", "assignee", "u-1", true},
		{"project:42", "project", "42", true},
		{"assignee:", "assignee", "", true},
		{" board:7 ", "board", "7", true},
		{"nocolon", "", "", false},
		{":42", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			kind, id, ok := ParseChoice(tt.token)
			if kind != tt.wantKind || id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ParseChoice(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.token, kind, id, ok, tt.wantKind, tt.wantID, tt.wantOK)
			}
		})
	}

	if tok := EncodeChoice("project", "42"); tok != "project:42" {
		t.Errorf("EncodeChoice = %q", tok)
	}
}

func TestConversationID(t *testing.T) {
	id := ConversationID("telegram", "-100123")
	if id != "telegram:-100123" {
		t.Fatalf("ConversationID = %q", id)
	}
	transport, local, ok := SplitConversationID(id)
	if !ok || transport != "telegram" || local != "-100123" {
		t.Errorf("SplitConversationID = (%q, %q, %v)", transport, local, ok)
	}
}

func TestRouterSend(t *testing.T) {
	var gotConv string
	var gotPrompt Prompt
	r := NewRouter()
	r.Register("ws", SinkFunc(func(_ context.Context, conv string, p Prompt) error {
		gotConv, gotPrompt = conv, p
		return nil
	}))

	p := Prompt{Text: "Pick one", Choices: []Choice{{Label: "A", Token: "project:1"}}}
	if err := r.Send(context.Background(), "ws:abc", p); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotConv != "ws:abc" || gotPrompt.Text != "Pick one" || !gotPrompt.HasChoices() {
		t.Errorf("unexpected delivery: %q %+v", gotConv, gotPrompt)
	}

	if err := r.Send(context.Background(), "telegram:1", p); err == nil {
		t.Error("expected error for unregistered transport")
	}
	if err := r.Send(context.Background(), "bare", p); err == nil {
		t.Error("expected error for id without prefix")
	}

	r.Unregister("ws")
	if err := r.Send(context.Background(), "ws:abc", p); err == nil {
		t.Error("expected error after Unregister")
	}
}

func TestChunkContent(t *testing.T) {
	short := "hello"
	if got := ChunkContent(short, 100); len(got) != 1 || got[0] != short {
		t.Errorf("short text should be one chunk, got %v", got)
	}

	long := strings.Repeat("line of text\n", 20)
	chunks := ChunkContent(long, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 50 {
			t.Errorf("chunk %d has length %d > 50", i, len(c))
		}
	}
}

func TestChunkContentKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("задача", 30)
	for i, c := range ChunkContent(text, 25) {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"Подготовить отчёт", 10, "Подгото..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := TruncateText(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
