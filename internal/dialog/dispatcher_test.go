package dialog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingHandler struct {
	mu      sync.Mutex
	handled map[string][]string
	active  map[string]*int32
	overlap atomic.Bool

	// gate, when set, blocks the handling of events whose text matches a key.
	gate map[string]chan struct{}
	// started is signalled when a gated event begins.
	started chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		handled: make(map[string][]string),
		active:  make(map[string]*int32),
		gate:    make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (h *recordingHandler) Handle(ctx context.Context, ev Event) {
	h.mu.Lock()
	counter, ok := h.active[ev.ConversationID]
	if !ok {
		counter = new(int32)
		h.active[ev.ConversationID] = counter
	}
	gate := h.gate[ev.Text]
	h.mu.Unlock()

	if ev.Kind != EventCancel {
		if atomic.AddInt32(counter, 1) > 1 {
			h.overlap.Store(true)
		}
		defer atomic.AddInt32(counter, -1)
	}

	if gate != nil {
		h.started <- ev.Text
		<-gate
	}

	label := ev.Text
	if ev.Kind == EventCancel {
		label = "<cancel>"
	}
	h.mu.Lock()
	h.handled[ev.ConversationID] = append(h.handled[ev.ConversationID], label)
	h.mu.Unlock()
}

func (h *recordingHandler) events(conversationID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled[conversationID]...)
}

func waitOrFail(t *testing.T, d *Dispatcher) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not drain")
	}
}

func TestDispatcherSerializesPerConversation(t *testing.T) {
	h := newRecordingHandler()
	d := NewDispatcher(h, nil)
	ctx := context.Background()

	want := []string{"1", "2", "3", "4", "5"}
	for _, text := range want {
		d.Dispatch(ctx, TextEvent("a", text))
		d.Dispatch(ctx, TextEvent("b", text))
	}
	waitOrFail(t, d)

	if h.overlap.Load() {
		t.Error("events of one conversation were handled concurrently")
	}
	for _, c := range []string{"a", "b"} {
		got := h.events(c)
		if len(got) != len(want) {
			t.Fatalf("conversation %s handled %v", c, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("conversation %s order = %v, want %v", c, got, want)
				break
			}
		}
	}
}

func TestDispatcherRunsConversationsConcurrently(t *testing.T) {
	h := newRecordingHandler()
	release := make(chan struct{})
	h.gate["slow"] = release
	d := NewDispatcher(h, nil)
	ctx := context.Background()

	d.Dispatch(ctx, TextEvent("a", "slow"))
	<-h.started

	d.Dispatch(ctx, TextEvent("b", "fast"))
	deadline := time.After(5 * time.Second)
	for len(h.events("b")) == 0 {
		select {
		case <-deadline:
			t.Fatal("conversation b blocked behind conversation a")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(release)
	waitOrFail(t, d)
}

func TestDispatcherCancelDropsQueuedEvents(t *testing.T) {
	h := newRecordingHandler()
	release := make(chan struct{})
	h.gate["first"] = release
	d := NewDispatcher(h, nil)
	ctx := context.Background()

	d.Dispatch(ctx, TextEvent("a", "first"))
	<-h.started
	d.Dispatch(ctx, TextEvent("a", "second"))
	d.Dispatch(ctx, TextEvent("a", "third"))
	if d.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", d.Pending())
	}

	d.Dispatch(ctx, TextEvent("a", "cancel"))
	if d.Pending() != 0 {
		t.Errorf("Pending() after cancel = %d", d.Pending())
	}

	close(release)
	waitOrFail(t, d)

	got := h.events("a")
	if len(got) != 2 || got[0] != "<cancel>" || got[1] != "first" {
		t.Errorf("handled = %v, want [<cancel> first]", got)
	}
}
