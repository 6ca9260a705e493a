package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brandbridge/portal/internal/guard"
	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

// RouteGuard admits signed-in callers whose role is allowed. An empty allow
// list admits any signed-in caller. Others are redirected.
func RouteGuard(allowed ...session.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return apply(c, guard.Route(SessionFrom(c).State(), allowed...))
	}
}

// EligibilityGate sends influencers with an incomplete profile to the profile
// setup page. It must run after RouteGuard.
func EligibilityGate(reader guard.FlagReader, timeout time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g := guard.NewEligibilityGuard(reader, guard.WithReadTimeout(timeout), guard.WithLogger(logger))
		defer g.Close()

		decision := g.Update(SessionFrom(c).State())
		if decision.Action == guard.ActionWait {
			var err error
			if decision, err = g.Await(c.UserContext()); err != nil {
				return waitResponse(c)
			}
		}
		return apply(c, decision)
	}
}

// AuthPageRedirect keeps signed-in callers off the login, registration and
// password recovery pages.
func AuthPageRedirect() fiber.Handler {
	redirector := guard.NewAuthPageRedirector()
	return func(c *fiber.Ctx) error {
		return apply(c, redirector.Evaluate(SessionFrom(c).State(), routepath.Clean(c.Path())))
	}
}

// RequireSignedIn is the API flavour of RouteGuard: 401 instead of a redirect.
func RequireSignedIn() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !SessionFrom(c).State().SignedIn() {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		return c.Next()
	}
}

// RequireRole answers 403 to signed-in callers outside roles.
func RequireRole(roles ...session.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := SessionFrom(c).State()
		if !state.SignedIn() {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		if !slices.Contains(roles, state.Role) {
			return fiber.NewError(http.StatusForbidden, "forbidden")
		}
		return c.Next()
	}
}

func apply(c *fiber.Ctx, d guard.Decision) error {
	switch d.Action {
	case guard.ActionRender:
		return c.Next()
	case guard.ActionRedirect:
		status := http.StatusFound
		if d.Replace {
			status = http.StatusSeeOther
		}
		return c.Redirect(d.Target, status)
	default:
		return waitResponse(c)
	}
}

func waitResponse(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, "1")
	return fiber.NewError(http.StatusServiceUnavailable, "session is still loading")
}
