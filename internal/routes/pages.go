package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brandbridge/portal/internal/guard"
	"github.com/brandbridge/portal/internal/middleware"
	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

// RegisterPageRoutes mounts the portal pages behind their session guards.
// Pages answer with a JSON description of what would be rendered.
func RegisterPageRoutes(app fiber.Router, profiles guard.FlagReader, readTimeout time.Duration, logger *slog.Logger) {
	authPage := middleware.AuthPageRedirect()
	for _, p := range routepath.AuthPages() {
		app.Get(p, authPage, page("auth"))
	}

	app.Get(routepath.Root, func(c *fiber.Ctx) error {
		state := middleware.SessionFrom(c).State()
		if !state.SignedIn() {
			return c.Redirect(routepath.Login, fiber.StatusSeeOther)
		}
		return c.Redirect(routepath.HomeFor(state.Role), fiber.StatusSeeOther)
	})

	admin := app.Group(routepath.AdminHome, middleware.RouteGuard(session.RoleAdmin))
	admin.Get("/", page("admin"))
	admin.Get("/*", page("admin"))

	dashboard := app.Group(routepath.DashboardHome, middleware.RouteGuard())
	dashboard.Get("/", page("dashboard"))
	dashboard.Get("/*", page("dashboard"))

	brand := app.Group(routepath.BrandHome, middleware.RouteGuard(session.RoleBrand))
	brand.Get("/", page("brand"))
	brand.Get("/*", page("brand"))

	// Profile setup is reachable with an incomplete profile; everything else
	// under /influencer is gated on it.
	app.Get(routepath.ProfileSetup, middleware.RouteGuard(session.RoleInfluencer), page("profile_setup"))
	influencer := app.Group(routepath.InfluencerHome,
		middleware.RouteGuard(session.RoleInfluencer),
		middleware.EligibilityGate(profiles, readTimeout, logger))
	influencer.Get("/", page("influencer"))
	influencer.Get("/*", page("influencer"))
}

func page(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"page":    name,
			"path":    c.Path(),
			"session": sessionView(middleware.SessionFrom(c).State()),
		})
	}
}

func sessionView(state session.State) fiber.Map {
	view := fiber.Map{"status": state.Status.String()}
	if state.SignedIn() {
		view["user_id"] = state.UserID
		view["role"] = state.Role
	}
	return view
}
