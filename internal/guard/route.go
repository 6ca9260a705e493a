package guard

import (
	"slices"

	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

// Route admits or redirects based on the session and an optional allow-list.
// It is a pure function and is re-evaluated on every session change.
func Route(state session.State, allowed ...session.Role) Decision {
	switch state.Status {
	case session.StatusLoading:
		return Wait()
	case session.StatusSignedOut:
		return RedirectTo(routepath.Login)
	}
	if len(allowed) == 0 || slices.Contains(allowed, state.Role) {
		return Render()
	}
	return RedirectTo(routepath.HomeFor(state.Role))
}
