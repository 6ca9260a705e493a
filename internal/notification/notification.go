// Package notification stores per-identity notifications, pushes insertion
// events to live subscribers and keeps a bounded, unread-aware feed in sync.
package notification

import (
	"errors"
	"maps"
	"time"

	"github.com/brandbridge/portal/internal/session"
)

// FeedWindow is the number of most recent notifications a feed holds.
const FeedWindow = 20

var (
	// ErrTransientRead marks a failed list read. The feed keeps its prior state.
	ErrTransientRead = errors.New("notification read failed")
	// ErrWrite marks a failed insert or update.
	ErrWrite = errors.New("notification write failed")
	// ErrInvalidInput is returned by the dispatcher for incomplete requests.
	ErrInvalidInput = errors.New("invalid notification input")
	// ErrFeedClosed is returned by a feed after Close.
	ErrFeedClosed = errors.New("feed closed")
)

// Metadata is the optional structured payload of a notification.
type Metadata map[string]any

// Notification is a single message addressed to one identity.
type Notification struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Role      session.Role `json:"role"`
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Metadata  Metadata     `json:"metadata,omitempty"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
}

// UnreadCount counts the unread items.
func UnreadCount(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// FeedState is a snapshot of a feed.
type FeedState struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unread_count"`
	Loading     bool           `json:"loading"`
}

func (s FeedState) clone() FeedState {
	if s.Items != nil {
		items := make([]Notification, len(s.Items))
		for i, n := range s.Items {
			items[i] = n.clone()
		}
		s.Items = items
	}
	return s
}

// clone copies the metadata map so the copy can be changed independently.
// Nested values are shared.
func (n Notification) clone() Notification {
	n.Metadata = maps.Clone(n.Metadata)
	return n
}
