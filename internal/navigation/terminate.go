package navigation

import "github.com/brandbridge/portal/internal/session"

// Terminator performs a full navigation to an origin outside the application.
// Leaving the app discards client state; no History entry is added.
type Terminator interface {
	Terminate(origin string)
}

// TerminatorFunc adapts a function to Terminator.
type TerminatorFunc func(origin string)

// Terminate calls f(origin).
func (f TerminatorFunc) Terminate(origin string) { f(origin) }

// TerminateOnSignOut leaves the application for origin whenever store signs
// out. The returned func stops watching.
func TerminateOnSignOut(store *session.Store, origin string, t Terminator) (unbind func()) {
	return store.OnSignOut(func(session.State) {
		t.Terminate(origin)
	})
}
