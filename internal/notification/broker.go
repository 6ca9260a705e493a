package notification

import (
	"context"
	"sync"
	"time"
)

// subscriptionBuffer bounds undelivered events per subscriber. One pending
// event already guarantees a refresh, so overflow is dropped.
const subscriptionBuffer = 16

// Event announces that a notification was inserted for UserID.
type Event struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Subscription delivers insertion events for one identity. Close must be
// called exactly once per successful Subscribe; it closes Events.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Broker fans insertion events out to subscribers of the same identity.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// MemoryBroker is an in-process Broker.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

// NewMemoryBroker builds an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*memorySubscription]struct{})}
}

// Publish never blocks on slow subscribers.
func (b *MemoryBroker) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[event.UserID] {
		select {
		case sub.events <- event:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, userID string) (Subscription, error) {
	sub := &memorySubscription{broker: b, userID: userID, events: make(chan Event, subscriptionBuffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*memorySubscription]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	return sub, nil
}

// Live reports the number of open subscriptions for userID.
func (b *MemoryBroker) Live(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

type memorySubscription struct {
	broker *MemoryBroker
	userID string
	events chan Event
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()
		delete(s.broker.subs[s.userID], s)
		if len(s.broker.subs[s.userID]) == 0 {
			delete(s.broker.subs, s.userID)
		}
		close(s.events)
	})
	return nil
}
