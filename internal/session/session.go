// Package session models the signed-in state of a visitor: who they are, which
// role they hold, and whether that is still being resolved.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRole is returned when a role string is outside the closed set.
	ErrUnknownRole = errors.New("unknown role")
	// ErrNoIdentity indicates the credential did not resolve to an identity.
	ErrNoIdentity = errors.New("no identity")
	// ErrInvalidTransition is returned for state changes the session lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Role is the access tier of an identity.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInfluencer Role = "influencer"
	RoleBrand      Role = "brand"
)

// ParseRole validates a stored or transmitted role value.
func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case RoleAdmin, RoleInfluencer, RoleBrand:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, v)
}

// Status is the tri-state of a session.
type Status int

const (
	StatusLoading Status = iota
	StatusSignedOut
	StatusSignedIn
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSignedOut:
		return "signed_out"
	case StatusSignedIn:
		return "signed_in"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is an immutable view of a session. UserID and Role are only set when
// Status is StatusSignedIn.
type State struct {
	Status Status
	UserID string
	Role   Role
}

func (s State) Loading() bool   { return s.Status == StatusLoading }
func (s State) SignedOut() bool { return s.Status == StatusSignedOut }
func (s State) SignedIn() bool  { return s.Status == StatusSignedIn }

// Principal is what a Resolver learns about a credential.
type Principal struct {
	UserID string
	Role   Role
}

// Resolver turns an opaque credential (a bearer token or session cookie) into
// a Principal. It returns an error wrapping ErrNoIdentity when the credential
// does not name a known identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Principal, error)
}

// EventKind distinguishes ordinary state changes from the sign-out event.
type EventKind int

const (
	EventStateChanged EventKind = iota + 1
	EventSignedOut
)

// Event is delivered to Store subscribers on every transition.
type Event struct {
	Kind     EventKind
	State    State
	Previous State
}
