// Package routepath stores the canonical page paths the session guards
// redirect between.
package routepath

import (
	"strings"

	"github.com/brandbridge/portal/internal/session"
)

const (
	Root             = "/"
	Login            = "/login"
	Register         = "/register"
	ForgotPassword   = "/forgot-password"
	Logout           = "/auth/logout"
	AdminHome        = "/admin"
	AdminPrefix      = "/admin/"
	DashboardHome    = "/dashboard"
	DashboardPrefix  = "/dashboard/"
	BrandHome        = "/brand"
	BrandPrefix      = "/brand/"
	InfluencerHome   = "/influencer"
	InfluencerPrefix = "/influencer/"
	ProfileSetup     = "/influencer/setup"
)

var authPages = map[string]struct{}{
	Login:          {},
	Register:       {},
	ForgotPassword: {},
}

// AuthPages lists the pages only meaningful to signed-out visitors.
func AuthPages() []string {
	return []string{Login, Register, ForgotPassword}
}

// IsAuthPage reports whether location (a path, optionally with query or
// fragment) is an authentication-only page.
func IsAuthPage(location string) bool {
	_, ok := authPages[Clean(location)]
	return ok
}

// HomeFor returns the landing page of a role. Admins have their own home;
// every other role lands on the shared dashboard.
func HomeFor(role session.Role) string {
	if role == session.RoleAdmin {
		return AdminHome
	}
	return DashboardHome
}

// Clean strips query, fragment and trailing slashes from a location.
func Clean(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return Root
	}
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	if len(location) > 1 {
		location = strings.TrimRight(location, "/")
		if location == "" {
			return Root
		}
	}
	return location
}
