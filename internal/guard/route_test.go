package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

var allRoles = []session.Role{session.RoleAdmin, session.RoleInfluencer, session.RoleBrand}

func signedIn(userID string, role session.Role) session.State {
	return session.State{Status: session.StatusSignedIn, UserID: userID, Role: role}
}

func TestRouteLoadingNeverRedirects(t *testing.T) {
	loading := session.State{Status: session.StatusLoading}
	assert.Equal(t, Wait(), Route(loading))
	for _, role := range allRoles {
		assert.Equal(t, Wait(), Route(loading, role))
	}
}

func TestRouteSignedOutAlwaysGoesToLogin(t *testing.T) {
	signedOut := session.State{Status: session.StatusSignedOut}
	configs := [][]session.Role{nil, {session.RoleAdmin}, {session.RoleInfluencer, session.RoleBrand}, allRoles}
	for _, allowed := range configs {
		d := Route(signedOut, allowed...)
		assert.Equal(t, ActionRedirect, d.Action)
		assert.Equal(t, routepath.Login, d.Target)
		assert.True(t, d.Replace)
	}
}

func TestRouteDisallowedRoleGoesHome(t *testing.T) {
	tests := []struct {
		name    string
		role    session.Role
		allowed []session.Role
		want    Decision
	}{
		{"admin on influencer page", session.RoleAdmin, []session.Role{session.RoleInfluencer}, RedirectTo(routepath.AdminHome)},
		{"influencer on admin page", session.RoleInfluencer, []session.Role{session.RoleAdmin}, RedirectTo(routepath.DashboardHome)},
		{"brand on admin page", session.RoleBrand, []session.Role{session.RoleAdmin}, RedirectTo(routepath.DashboardHome)},
		{"brand on influencer page", session.RoleBrand, []session.Role{session.RoleInfluencer}, RedirectTo(routepath.DashboardHome)},
		{"allowed role renders", session.RoleBrand, []session.Role{session.RoleAdmin, session.RoleBrand}, Render()},
		{"no restriction renders", session.RoleInfluencer, nil, Render()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(signedIn("u-1", tt.role), tt.allowed...))
		})
	}
}

func TestRouteRedirectTargetDependsOnlyOnRole(t *testing.T) {
	for _, role := range allRoles {
		first := Route(signedIn("u-1", role), "nobody")
		second := Route(signedIn("u-2", role), "nobody")
		assert.Equal(t, first, second)
		assert.Equal(t, routepath.HomeFor(role), first.Target)
	}
}
