package dialog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alekspetrov/weeekbot/internal/logging"
)

// Handler processes one event to completion.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

// Dispatcher serializes events per conversation. Each conversation with
// pending events has one mailbox drained by one goroutine; conversations are
// handled concurrently. Cancel events skip the mailbox, drop whatever is
// still queued for the conversation and are handled right away.
type Dispatcher struct {
	handler       Handler
	cancelPhrases []string
	log           *slog.Logger

	mu        sync.Mutex
	mailboxes map[string]*mailbox
	wg        sync.WaitGroup
}

type mailbox struct {
	events []queued
}

type queued struct {
	ctx context.Context
	ev  Event
}

// NewDispatcher creates a dispatcher for h. cancelPhrases must match the
// handler's so queued events can be dropped on cancel.
func NewDispatcher(h Handler, cancelPhrases []string) *Dispatcher {
	if cancelPhrases == nil {
		cancelPhrases = DefaultCancelPhrases
	}
	return &Dispatcher{
		handler:       h,
		cancelPhrases: cancelPhrases,
		log:           logging.WithComponent("dispatcher"),
		mailboxes:     make(map[string]*mailbox),
	}
}

// Dispatch queues ev for its conversation. It does not wait for handling,
// except for cancel events, which run on the caller's goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	ev = Classify(ev, d.cancelPhrases)

	if ev.Kind == EventCancel {
		d.mu.Lock()
		if mb, ok := d.mailboxes[ev.ConversationID]; ok && len(mb.events) > 0 {
			d.log.Debug("dropping queued events on cancel",
				slog.String("conversation_id", ev.ConversationID),
				slog.Int("dropped", len(mb.events)),
			)
			mb.events = nil
		}
		d.mu.Unlock()

		d.handler.Handle(ctx, ev)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mb, running := d.mailboxes[ev.ConversationID]
	if !running {
		mb = &mailbox{}
		d.mailboxes[ev.ConversationID] = mb
	}
	mb.events = append(mb.events, queued{ctx: ctx, ev: ev})
	if !running {
		d.wg.Add(1)
		go d.drain(ev.ConversationID, mb)
	}
}

func (d *Dispatcher) drain(conversationID string, mb *mailbox) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(mb.events) == 0 {
			delete(d.mailboxes, conversationID)
			d.mu.Unlock()
			return
		}
		next := mb.events[0]
		mb.events = mb.events[1:]
		d.mu.Unlock()

		if next.ctx.Err() != nil {
			continue
		}
		d.handler.Handle(next.ctx, next.ev)
	}
}

// Pending returns the number of queued, not yet started events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, mb := range d.mailboxes {
		n += len(mb.events)
	}
	return n
}

// Wait blocks until every mailbox is drained.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
