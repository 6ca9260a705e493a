package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandbridge/portal/internal/session"
)

func TestHistoryReplaceDropsBackEntry(t *testing.T) {
	h := NewHistory("/")
	h.Push("/admin/users")
	h.Replace("/login")

	assert.Equal(t, "/login", h.Location())
	assert.Equal(t, 2, h.Len())
	require.True(t, h.Back())
	assert.Equal(t, "/", h.Location())
	assert.False(t, h.Back())
}

func TestHistoryNotifiesSubscribers(t *testing.T) {
	h := NewHistory("/")
	var seen []string
	unsubscribe := h.Subscribe(func(loc string) { seen = append(seen, loc) })

	h.Push("/dashboard?tab=inbox")
	h.Replace("/dashboard")
	h.Replace("/admin")
	unsubscribe()
	h.Push("/brand")

	assert.Equal(t, []string{"/dashboard", "/admin"}, seen)
}

func TestTerminateOnSignOut(t *testing.T) {
	store := session.NewStore()
	require.NoError(t, store.SignIn(session.Principal{UserID: "u-1", Role: session.RoleBrand}))

	var origins []string
	unbind := TerminateOnSignOut(store, "https://brandbridge.example", TerminatorFunc(func(origin string) {
		origins = append(origins, origin)
	}))
	defer unbind()

	require.NoError(t, store.SignOut())
	assert.Equal(t, []string{"https://brandbridge.example"}, origins)
}
