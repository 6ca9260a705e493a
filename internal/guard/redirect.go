package guard

import (
	"github.com/brandbridge/portal/internal/navigation"
	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

// AuthPageRedirector keeps signed-in visitors off the authentication pages.
type AuthPageRedirector struct {
	isAuthPage func(location string) bool
}

// NewAuthPageRedirector uses routepath.IsAuthPage to recognise auth pages.
func NewAuthPageRedirector() *AuthPageRedirector {
	return &AuthPageRedirector{isAuthPage: routepath.IsAuthPage}
}

// Evaluate redirects a signed-in visitor on an auth page to their role's home.
// Anything else passes through, so repeated evaluation is a no-op.
func (r *AuthPageRedirector) Evaluate(state session.State, location string) Decision {
	if !state.SignedIn() || !r.isAuthPage(location) {
		return Render()
	}
	return RedirectTo(routepath.HomeFor(state.Role))
}

// Bind re-evaluates whenever the session or the location changes and replaces
// the current history entry when a redirect is due. It evaluates once
// immediately. The returned func releases both subscriptions.
func (r *AuthPageRedirector) Bind(store *session.Store, history *navigation.History) (unbind func()) {
	evaluate := func() {
		if d := r.Evaluate(store.State(), history.Location()); d.Action == ActionRedirect {
			history.Replace(d.Target)
		}
	}
	unsubscribeSession := store.Subscribe(func(session.Event) { evaluate() })
	unsubscribeHistory := history.Subscribe(func(string) { evaluate() })
	evaluate()
	return func() {
		unsubscribeSession()
		unsubscribeHistory()
	}
}
