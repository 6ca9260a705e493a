package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brandbridge/portal/internal/logging"
	"github.com/brandbridge/portal/internal/observe"
)

// Feed holds the FeedWindow most recent notifications of one identity and
// refreshes them on demand, after mark-all-read and on every insertion event.
//
// Results of reads started for a previous identity, or before a newer read
// for the same identity was applied, are dropped.
type Feed struct {
	repo   Repository
	broker Broker
	logger *slog.Logger

	// lifecycle serializes SetIdentity and Close so a subscription is never
	// opened for an identity that was already replaced.
	lifecycle sync.Mutex

	mu       sync.Mutex
	userID   string
	bound    bool
	gen      uint64
	started  uint64
	applied  uint64
	inflight int
	state    FeedState
	sub      Subscription
	stop     context.CancelFunc
	closed   bool
	changes  observe.Source[FeedState]
	listenWG sync.WaitGroup
}

// NewFeed builds an unbound feed. broker may be nil, in which case the feed
// only refreshes on demand.
func NewFeed(repo Repository, broker Broker, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Feed{repo: repo, broker: broker, logger: logger, state: FeedState{Items: []Notification{}}}
}

// SetIdentity points the feed at userID. The previous subscription is released
// before a new one is opened. An empty userID leaves the feed empty and
// performs no reads. Setting the current identity again is a no-op.
//
// A failed subscription is logged and the feed keeps working without push.
// The returned error is that of the initial fetch, if any.
func (f *Feed) SetIdentity(ctx context.Context, userID string) error {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFeedClosed
	}
	if f.bound && f.userID == userID {
		f.mu.Unlock()
		return nil
	}
	sub, stop := f.detachLocked()
	f.userID = userID
	f.bound = true
	f.setStateLocked(FeedState{Items: []Notification{}, Loading: userID != ""})
	f.mu.Unlock()

	f.release(sub, stop)
	f.changes.Drain()

	if userID == "" {
		return nil
	}
	if f.broker != nil {
		f.subscribe(ctx, userID)
	}
	_, err := f.Fetch(ctx)
	return err
}

// Fetch reloads the window. On failure the previous items stay in place and
// the error wraps ErrTransientRead. Loading stays set while any read for the
// current identity is outstanding.
func (f *Feed) Fetch(ctx context.Context) (FeedState, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return FeedState{}, ErrFeedClosed
	}
	userID, gen := f.userID, f.gen
	if userID == "" {
		state := f.state.clone()
		f.mu.Unlock()
		return state, nil
	}
	f.started++
	seq := f.started
	f.inflight++
	if !f.state.Loading {
		next := f.state
		next.Loading = true
		f.setStateLocked(next)
	}
	f.mu.Unlock()
	f.changes.Drain()

	items, err := f.repo.ListRecent(ctx, userID, FeedWindow)

	f.mu.Lock()
	if f.closed || gen != f.gen {
		state := f.state.clone()
		f.mu.Unlock()
		f.logger.Debug("stale response discarded", slog.String("user_id", userID))
		return state, nil
	}
	f.inflight--
	idle := f.inflight == 0
	if err != nil || seq <= f.applied {
		if idle && f.state.Loading {
			next := f.state
			next.Loading = false
			f.setStateLocked(next)
		}
		state := f.state.clone()
		f.mu.Unlock()
		f.changes.Drain()
		if err != nil {
			return state, fmt.Errorf("%w: %w", ErrTransientRead, err)
		}
		f.logger.Debug("stale response discarded", slog.String("user_id", userID))
		return state, nil
	}
	if items == nil {
		items = []Notification{}
	}
	f.applied = seq
	f.setStateLocked(FeedState{Items: items, UnreadCount: UnreadCount(items), Loading: !idle})
	state := f.state.clone()
	f.mu.Unlock()
	f.changes.Drain()
	return state, nil
}

// MarkAllAsRead flags every unread notification as read and reloads the
// window. With nothing unread it is a harmless no-op write.
func (f *Feed) MarkAllAsRead(ctx context.Context) (FeedState, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return FeedState{}, ErrFeedClosed
	}
	userID, gen := f.userID, f.gen
	f.mu.Unlock()
	if userID == "" {
		return f.State(), nil
	}

	if _, err := f.repo.MarkAllRead(ctx, userID); err != nil {
		return f.State(), fmt.Errorf("%w: %w", ErrWrite, err)
	}

	f.mu.Lock()
	if !f.closed && gen == f.gen && f.state.UnreadCount > 0 {
		next := f.state.clone()
		for i := range next.Items {
			next.Items[i].IsRead = true
		}
		next.UnreadCount = 0
		f.setStateLocked(next)
	}
	f.mu.Unlock()
	f.changes.Drain()

	return f.Fetch(ctx)
}

// State returns a copy of the current state.
func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

// UserID returns the identity the feed is bound to.
func (f *Feed) UserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

// OnChange registers fn for every applied state change, in order.
func (f *Feed) OnChange(fn func(FeedState)) (unsubscribe func()) {
	return f.changes.Subscribe(fn)
}

// Close releases the push subscription and stops the feed. Later results are
// dropped. Close is idempotent.
func (f *Feed) Close() {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	sub, stop := f.detachLocked()
	f.mu.Unlock()

	f.release(sub, stop)
	f.listenWG.Wait()
}

func (f *Feed) subscribe(ctx context.Context, userID string) {
	sub, err := f.broker.Subscribe(ctx, userID)
	if err != nil {
		f.logger.Warn("notification subscription failed", slog.String("user_id", userID), slog.Any("error", err))
		return
	}

	listenCtx, stop := context.WithCancel(context.Background())
	f.mu.Lock()
	f.sub, f.stop = sub, stop
	gen := f.gen
	f.mu.Unlock()

	f.listenWG.Add(1)
	go f.listen(listenCtx, sub, gen)
}

// listen refreshes the whole window for each insertion event.
func (f *Feed) listen(ctx context.Context, sub Subscription, gen uint64) {
	defer f.listenWG.Done()
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if !f.current(gen) {
				return
			}
			if _, err := f.Fetch(ctx); err != nil {
				f.logger.Debug("feed refresh failed", slog.Any("error", err))
			}
		}
	}
}

func (f *Feed) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && gen == f.gen
}

// detachLocked invalidates in-flight reads and hands back the subscription so
// it can be released outside the lock.
func (f *Feed) detachLocked() (Subscription, context.CancelFunc) {
	f.gen++
	f.inflight = 0
	sub, stop := f.sub, f.stop
	f.sub, f.stop = nil, nil
	return sub, stop
}

func (f *Feed) release(sub Subscription, stop context.CancelFunc) {
	if stop != nil {
		stop()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			f.logger.Warn("notification subscription close failed", slog.Any("error", err))
		}
	}
}

func (f *Feed) setStateLocked(next FeedState) {
	f.state = next
	f.changes.Enqueue(next.clone())
}
