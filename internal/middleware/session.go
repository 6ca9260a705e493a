package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/brandbridge/portal/internal/session"
)

const sessionLocal = "session"

// Session resolves the caller's credential into a per-request session store.
// The credential is a bearer token or, for page requests, the session cookie.
// A signed-in caller is also exposed as Locals("user_id") and Locals("role").
func Session(resolver session.Resolver, cookieName string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := session.NewStore()
		if err := store.Resolve(c.UserContext(), resolver, credential(c, cookieName)); err != nil {
			logger.Warn("session resolution failed", slog.String("path", c.Path()), slog.Any("error", err))
		}
		c.Locals(sessionLocal, store)
		if state := store.State(); state.SignedIn() {
			c.Locals("user_id", state.UserID)
			c.Locals("role", string(state.Role))
		}
		return c.Next()
	}
}

// SessionFrom returns the request's session store. Without the Session
// middleware the caller is treated as signed out.
func SessionFrom(c *fiber.Ctx) *session.Store {
	if store, ok := c.Locals(sessionLocal).(*session.Store); ok && store != nil {
		return store
	}
	store := session.NewStore()
	_ = store.Resolve(c.UserContext(), nil, "")
	c.Locals(sessionLocal, store)
	return store
}

func credential(c *fiber.Ctx, cookieName string) string {
	authz := c.Get(fiber.HeaderAuthorization)
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	if cookieName == "" {
		return ""
	}
	return strings.TrimSpace(c.Cookies(cookieName))
}
