package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/brandbridge/portal/internal/logging"
)

const channelPrefix = "notifications:insert:"

// ChannelFor returns the Pub/Sub channel carrying insertion events of userID.
func ChannelFor(userID string) string {
	return channelPrefix + userID
}

// RedisBroker publishes insertion events over Redis Pub/Sub, one channel per
// identity.
type RedisBroker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisBroker builds a broker on top of an existing client.
func NewRedisBroker(client *redis.Client, logger *slog.Logger) *RedisBroker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RedisBroker{client: client, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelFor(event.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published afterwards are not missed.
func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, ChannelFor(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", userID, err)
	}
	sub := &redisSubscription{
		ps:     ps,
		events: make(chan Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(b.logger.With(slog.String("user_id", userID)))
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
	err    error
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
	})
	return s.err
}

func (s *redisSubscription) pump(logger *slog.Logger) {
	defer close(s.events)
	messages := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("malformed notification event", slog.Any("error", err))
				continue
			}
			select {
			case s.events <- event:
			default:
			}
		}
	}
}
