package dialog

import (
	"sync"
	"time"
)

// Store holds the active dialog of every conversation.
//
// Each conversation has a handling lock that serializes event processing and
// a generation counter. Handlers read a snapshot together with its generation
// and write back with Save or Clear, which only succeed if the generation is
// unchanged. Cancel bumps the generation without waiting for the handling
// lock, so a handler that was suspended on an external call when the user
// cancelled cannot resurrect the dialog.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	handling sync.Mutex
	waiters  int

	dialog *Dialog
	gen    uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) entryLocked(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// Lock acquires the handling lock of a conversation. The returned function
// releases it.
func (s *Store) Lock(id string) (unlock func()) {
	s.mu.Lock()
	e := s.entryLocked(id)
	e.waiters++
	s.mu.Unlock()

	e.handling.Lock()
	return func() {
		e.handling.Unlock()
		s.mu.Lock()
		e.waiters--
		if e.waiters == 0 && e.dialog == nil {
			delete(s.entries, id)
		}
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the conversation's dialog (nil when idle) and the
// current generation.
func (s *Store) Snapshot(id string) (*Dialog, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, 0
	}
	return e.dialog.Clone(), e.gen
}

// Save stores d if the generation is still gen.
func (s *Store) Save(id string, gen uint64, d *Dialog) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if e.gen != gen {
		return false
	}
	e.dialog = d.Clone()
	return true
}

// Clear removes the dialog if the generation is still gen.
func (s *Store) Clear(id string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return gen == 0
	}
	if e.gen != gen {
		return false
	}
	e.dialog = nil
	if e.waiters == 0 {
		delete(s.entries, id)
	}
	return true
}

// Cancel removes the dialog unconditionally and invalidates any in-flight
// handler. It reports the removed dialog, or false if there was none.
func (s *Store) Cancel(id string) (*Dialog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.dialog == nil {
		return nil, false
	}
	prev := e.dialog
	e.dialog = nil
	e.gen++
	if e.waiters == 0 {
		delete(s.entries, id)
	}
	return prev, true
}

// Active returns the number of conversations with a dialog in progress.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.dialog != nil {
			n++
		}
	}
	return n
}

// Sweep removes dialogs not updated since now-idle that are not currently
// being handled, and returns them.
func (s *Store) Sweep(idle time.Duration, now time.Time) []*Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*Dialog
	cutoff := now.Add(-idle)
	for id, e := range s.entries {
		if e.waiters > 0 || e.dialog == nil {
			continue
		}
		if e.dialog.UpdatedAt.After(cutoff) {
			continue
		}
		removed = append(removed, e.dialog)
		delete(s.entries, id)
	}
	return removed
}
