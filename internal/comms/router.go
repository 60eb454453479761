package comms

import (
	"context"
	"fmt"
	"sync"
)

// Router is a Sink that forwards each prompt to the sink registered for the
// conversation's transport prefix.
type Router struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{sinks: make(map[string]Sink)}
}

// Register binds a transport name to a sink, replacing any previous one.
func (r *Router) Register(transport string, s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[transport] = s
}

// Unregister removes a transport.
func (r *Router) Unregister(transport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, transport)
}

// Send implements Sink.
func (r *Router) Send(ctx context.Context, conversationID string, p Prompt) error {
	transport, _, ok := SplitConversationID(conversationID)
	if !ok {
		return fmt.Errorf("conversation id %q has no transport prefix", conversationID)
	}

	r.mu.RLock()
	s, found := r.sinks[transport]
	r.mu.RUnlock()

	if !found {
		return fmt.Errorf("no sink registered for transport %q", transport)
	}
	return s.Send(ctx, conversationID, p)
}
