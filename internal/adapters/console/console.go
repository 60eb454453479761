// Package console is a terminal chat transport for trying the bot locally.
// Choices are numbered and picked by typing the number.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

const (
	// Name is the transport prefix of the console conversation.
	Name = "console"
	// LocalID is the only conversation the console hosts.
	LocalID = "local"
)

// Console reads user lines from in and prints prompts to out. Events are
// handled synchronously, so every reply is printed before the next input.
type Console struct {
	in      io.Reader
	out     io.Writer
	handler dialog.Handler

	mu      sync.Mutex
	choices []comms.Choice

	botStyle    lipgloss.Style
	choiceStyle lipgloss.Style
	dimStyle    lipgloss.Style
	inputStyle  lipgloss.Style
}

// New creates a console transport.
func New(in io.Reader, out io.Writer, h dialog.Handler) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		in:          in,
		out:         out,
		handler:     h,
		botStyle:    r.NewStyle().Foreground(lipgloss.Color("#7eb8da")),
		choiceStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		dimStyle:    r.NewStyle().Foreground(lipgloss.Color("243")),
		inputStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
	}
}

// ConversationID returns the id of the console conversation.
func (c *Console) ConversationID() string {
	return comms.ConversationID(Name, LocalID)
}

// Send implements comms.Sink.
func (c *Console) Send(_ context.Context, conversationID string, p comms.Prompt) error {
	if conversationID != c.ConversationID() {
		return fmt.Errorf("not a console conversation: %q", conversationID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.choices = append([]comms.Choice(nil), p.Choices...)

	var b strings.Builder
	b.WriteString("\n")
	for _, line := range strings.Split(p.Text, "\n") {
		b.WriteString("  " + c.botStyle.Render(line) + "\n")
	}
	for i, choice := range p.Choices {
		fmt.Fprintf(&b, "  %s %s\n", c.choiceStyle.Render(fmt.Sprintf("[%d]", i+1)), choice.Label)
	}
	_, err := io.WriteString(c.out, b.String())
	return err
}

// Run reads lines until EOF, /quit or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.dimStyle.Render("  Describe a task. Type a number to pick a choice, /voice <file> to send audio, /quit to leave."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "\n"+c.inputStyle.Render("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		ev, err := c.eventFor(line)
		if err != nil {
			fmt.Fprintln(c.out, "  "+c.dimStyle.Render(err.Error()))
			continue
		}
		c.handler.Handle(ctx, ev)
	}
}

// eventFor maps an input line to a dialog event. A number picks from the
// last printed choices; anything else is free text.
func (c *Console) eventFor(line string) (dialog.Event, error) {
	conv := c.ConversationID()

	if rest, ok := strings.CutPrefix(line, "/voice"); ok && (rest == "" || rest[0] == ' ') {
		path := strings.TrimSpace(rest)
		if path == "" {
			return dialog.Event{}, fmt.Errorf("usage: /voice <audio file>")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return dialog.Event{}, fmt.Errorf("cannot read audio: %w", err)
		}
		return dialog.VoiceEvent(conv, transcription.Audio{Name: filepath.Base(path), Data: data}), nil
	}

	if n, err := strconv.Atoi(line); err == nil {
		c.mu.Lock()
		choices := c.choices
		c.mu.Unlock()
		if n >= 1 && n <= len(choices) {
			ev, ok := dialog.SelectEvent(conv, choices[n-1].Token)
			if ok {
				return ev, nil
			}
		}
	}
	return dialog.TextEvent(conv, line), nil
}
