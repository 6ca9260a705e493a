package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandbridge/portal/internal/navigation"
	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

func TestAuthPageRedirectorEvaluate(t *testing.T) {
	r := NewAuthPageRedirector()

	assert.Equal(t, Render(), r.Evaluate(session.State{Status: session.StatusLoading}, routepath.Login))
	assert.Equal(t, Render(), r.Evaluate(session.State{Status: session.StatusSignedOut}, routepath.Login))
	assert.Equal(t, RedirectTo(routepath.AdminHome), r.Evaluate(signedIn("u-1", session.RoleAdmin), routepath.Login))
	assert.Equal(t, RedirectTo(routepath.DashboardHome), r.Evaluate(signedIn("u-1", session.RoleBrand), routepath.Register))
	assert.Equal(t, Render(), r.Evaluate(signedIn("u-1", session.RoleBrand), routepath.DashboardHome))
}

func TestAuthPageRedirectorBindRedirectsOnceSignedIn(t *testing.T) {
	store := session.NewStore()
	history := navigation.NewHistory(routepath.Login)

	unbind := NewAuthPageRedirector().Bind(store, history)
	defer unbind()

	// Loading: nothing happens.
	assert.Equal(t, routepath.Login, history.Location())

	require.NoError(t, store.SignIn(session.Principal{UserID: "u-1", Role: session.RoleInfluencer}))
	assert.Equal(t, routepath.DashboardHome, history.Location())
	assert.Equal(t, 1, history.Len(), "redirect must replace the auth page entry")

	// Navigating back to an auth page while signed in bounces again.
	history.Push(routepath.ForgotPassword)
	assert.Equal(t, routepath.DashboardHome, history.Location())

	// Off auth pages repeated evaluation is a no-op.
	history.Push("/dashboard/campaigns")
	assert.Equal(t, "/dashboard/campaigns", history.Location())
}

func TestAuthPageRedirectorUnbind(t *testing.T) {
	store := session.NewStore()
	history := navigation.NewHistory(routepath.Login)

	unbind := NewAuthPageRedirector().Bind(store, history)
	unbind()

	require.NoError(t, store.SignIn(session.Principal{UserID: "u-1", Role: session.RoleAdmin}))
	assert.Equal(t, routepath.Login, history.Location())
}
