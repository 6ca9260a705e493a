package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brandbridge/portal/internal/auth"
	"github.com/brandbridge/portal/internal/config"
	"github.com/brandbridge/portal/internal/identity"
	"github.com/brandbridge/portal/internal/middleware"
	"github.com/brandbridge/portal/internal/navigation"
	"github.com/brandbridge/portal/internal/routepath"
)

// RegisterAuthRoutes adds sign-out and, with demo accounts, a development
// sign-in shortcut.
func RegisterAuthRoutes(app fiber.Router, tokens *auth.Service, users identity.Repository, cfg config.Config, demo bool, logger *slog.Logger) {
	app.Post(routepath.Logout, func(c *fiber.Ctx) error {
		store := middleware.SessionFrom(c)

		// Signing out leaves the application; already signed-out callers
		// are sent to the same place.
		target := cfg.SignOutOrigin
		unbind := navigation.TerminateOnSignOut(store, cfg.SignOutOrigin, navigation.TerminatorFunc(func(origin string) {
			target = origin
		}))
		defer unbind()

		if previous := store.State(); previous.SignedIn() {
			if err := tokens.Revoke(c.UserContext(), previous.UserID); err != nil {
				logger.Warn("token revocation failed", slog.String("user_id", previous.UserID), slog.Any("error", err))
			}
			if err := store.SignOut(); err != nil {
				return fiber.NewError(http.StatusInternalServerError, err.Error())
			}
			logger.Info("signed out", slog.String("user_id", previous.UserID))
		}

		c.Cookie(sessionCookie(cfg, "", time.Unix(0, 0)))
		return c.Redirect(target, http.StatusSeeOther)
	})

	if !demo || !cfg.IsDevelopment() {
		return
	}
	app.Get("/auth/dev-login/:role", func(c *fiber.Ctx) error {
		demoUser, ok := identity.DemoUserFor(c.Params("role"))
		if !ok {
			return fiber.NewError(http.StatusNotFound, "no demo account for role")
		}
		user, err := users.FindByID(c.UserContext(), demoUser.ID)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		token, exp, err := tokens.Issue(user)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		c.Cookie(sessionCookie(cfg, token, exp))
		return c.Redirect(routepath.Root, http.StatusSeeOther)
	})
}

func sessionCookie(cfg config.Config, value string, expires time.Time) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     cfg.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   !cfg.IsDevelopment(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	return cookie
}
