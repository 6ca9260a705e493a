package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brandbridge/portal/internal/observe"
)

// Store owns a session's State. Guards only read it; the Store is the single
// writer and announces each transition to its subscribers in order.
//
// Subscribers run synchronously on the goroutine that caused the transition.
// They may read State and may trigger further transitions; those are queued
// and delivered after the current event.
type Store struct {
	mu     sync.Mutex
	state  State
	events observe.Source[Event]
}

// NewStore returns a Store in the loading state.
func NewStore() *Store {
	return &Store{state: State{Status: StatusLoading}}
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every subsequent transition.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.Subscribe(fn)
}

// OnSignOut registers fn for the explicit sign-out event only.
func (s *Store) OnSignOut(fn func(previous State)) (unsubscribe func()) {
	return s.events.Subscribe(func(evt Event) {
		if evt.Kind == EventSignedOut {
			fn(evt.Previous)
		}
	})
}

// Resolve completes the loading phase. An empty credential, or one that does
// not name an identity, leaves the session signed out. Resolver failures other
// than ErrNoIdentity are returned after the session has been signed out.
func (s *Store) Resolve(ctx context.Context, resolver Resolver, credential string) error {
	if !s.State().Loading() {
		return fmt.Errorf("%w: resolve outside loading", ErrInvalidTransition)
	}
	if credential == "" || resolver == nil {
		return s.transition(StatusLoading, State{Status: StatusSignedOut}, EventStateChanged)
	}

	principal, err := resolver.Resolve(ctx, credential)
	if err != nil {
		if terr := s.transition(StatusLoading, State{Status: StatusSignedOut}, EventStateChanged); terr != nil {
			return terr
		}
		if errors.Is(err, ErrNoIdentity) {
			return nil
		}
		return fmt.Errorf("resolve session: %w", err)
	}
	return s.SignIn(principal)
}

// SignIn completes the loading phase with an already resolved principal.
func (s *Store) SignIn(p Principal) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: empty user id", ErrNoIdentity)
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}
	return s.transition(StatusLoading, State{Status: StatusSignedIn, UserID: p.UserID, Role: p.Role}, EventStateChanged)
}

// SignOut ends a signed-in session and fires EventSignedOut.
func (s *Store) SignOut() error {
	return s.transition(StatusSignedIn, State{Status: StatusSignedOut}, EventSignedOut)
}

// BeginLoading starts a fresh sign-in from the signed-out state.
func (s *Store) BeginLoading() error {
	return s.transition(StatusSignedOut, State{Status: StatusLoading}, EventStateChanged)
}

func (s *Store) transition(from Status, next State, kind EventKind) error {
	s.mu.Lock()
	if s.state.Status != from {
		current := s.state.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next.Status)
	}
	prev := s.state
	s.state = next
	s.events.Enqueue(Event{Kind: kind, State: next, Previous: prev})
	s.mu.Unlock()

	s.events.Drain()
	return nil
}
