package profile

import (
	"context"
	"sync"
)

// MemoryRepository keeps profile flags in memory for development and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMemoryRepository builds an empty in-memory profile store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{flags: make(map[string]bool)}
}

// Set stores the completeness flag for userID.
func (r *MemoryRepository) Set(userID string, complete bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[userID] = complete
}

// Delete removes the profile row for userID.
func (r *MemoryRepository) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flags, userID)
}

func (r *MemoryRepository) ProfileComplete(_ context.Context, userID string) (bool, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	complete, ok := r.flags[userID]
	return complete, ok, nil
}
