// Package navigation models the visitor's in-app location and the one
// navigation that leaves the application entirely.
package navigation

import (
	"sync"

	"github.com/brandbridge/portal/internal/observe"
	"github.com/brandbridge/portal/internal/routepath"
)

// History is an in-app navigation stack. Replace swaps the current entry so
// the visitor cannot navigate back into it; Push adds a new entry.
type History struct {
	mu      sync.Mutex
	entries []string
	changes observe.Source[string]
}

// NewHistory starts a history at the given location.
func NewHistory(initial string) *History {
	return &History{entries: []string{routepath.Clean(initial)}}
}

// Location returns the current entry.
func (h *History) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Push navigates to location, keeping the current entry reachable via Back.
func (h *History) Push(location string) {
	h.mu.Lock()
	location = routepath.Clean(location)
	h.entries = append(h.entries, location)
	h.changes.Enqueue(location)
	h.mu.Unlock()
	h.changes.Drain()
}

// Replace navigates to location in place of the current entry.
func (h *History) Replace(location string) {
	h.mu.Lock()
	location = routepath.Clean(location)
	if h.entries[len(h.entries)-1] == location {
		h.mu.Unlock()
		return
	}
	h.entries[len(h.entries)-1] = location
	h.changes.Enqueue(location)
	h.mu.Unlock()
	h.changes.Drain()
}

// Back pops the current entry. It reports false when there is nothing to go
// back to.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.entries) < 2 {
		h.mu.Unlock()
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	h.changes.Enqueue(h.entries[len(h.entries)-1])
	h.mu.Unlock()
	h.changes.Drain()
	return true
}

// Subscribe registers fn for every location change.
func (h *History) Subscribe(fn func(location string)) (unsubscribe func()) {
	return h.changes.Subscribe(fn)
}
