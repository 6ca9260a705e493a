package notification

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps notifications in memory for development and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string][]Notification
}

// NewMemoryRepository builds an empty in-memory notification store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string][]Notification)}
}

func (r *MemoryRepository) ListRecent(_ context.Context, userID string, limit int) ([]Notification, error) {
	r.mu.RLock()
	stored := r.items[userID]
	items := make([]Notification, len(stored))
	for i, n := range stored {
		items[i] = n.clone()
	}
	r.mu.RUnlock()

	// Later inserts win ties on created_at.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *MemoryRepository) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for i := range r.items[userID] {
		if !r.items[userID][i].IsRead {
			r.items[userID][i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (r *MemoryRepository) Insert(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.UserID] = append(r.items[n.UserID], n.clone())
	return nil
}
