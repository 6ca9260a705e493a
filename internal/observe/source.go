// Package observe provides the typed change feeds that sessions, guards and
// notification feeds use to announce state transitions.
package observe

import "sync"

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Source fans values out to subscribers in registration order.
//
// Values are queued and delivered by a single drainer at a time, so every
// subscriber observes them in the order they were enqueued. A value enqueued
// from inside a subscriber is delivered after the current value has reached
// every subscriber. The zero value is ready to use.
type Source[T any] struct {
	mu       sync.Mutex
	subs     []subscriber[T]
	nextID   uint64
	queue    []T
	draining bool
}

// Subscribe registers fn and returns a func that removes it. The returned func
// is safe to call more than once.
func (s *Source[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Len reports the number of live subscribers.
func (s *Source[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Enqueue appends v to the delivery queue without delivering it. Callers that
// need delivery order to match their own state order enqueue while holding
// their lock and call Drain after releasing it.
func (s *Source[T]) Enqueue(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
}

// Drain delivers queued values. If another drain is already running (on this
// goroutine or another) it returns immediately and that drainer delivers them.
func (s *Source[T]) Drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		subs := append([]subscriber[T](nil), s.subs...)
		s.mu.Unlock()
		for _, sub := range subs {
			if s.live(sub.id) {
				sub.fn(next)
			}
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// Emit enqueues v and drains.
func (s *Source[T]) Emit(v T) {
	s.Enqueue(v)
	s.Drain()
}

func (s *Source[T]) live(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.id == id {
			return true
		}
	}
	return false
}
