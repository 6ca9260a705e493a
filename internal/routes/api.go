package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brandbridge/portal/internal/middleware"
	"github.com/brandbridge/portal/internal/notification"
	"github.com/brandbridge/portal/internal/session"
)

// RegisterAPIRoutes mounts the JSON API. Unlike pages, it answers 401/403
// instead of redirecting.
func RegisterAPIRoutes(api fiber.Router, notifications *notification.Handler, d Deps) {
	api.Use(middleware.RequireSignedIn())

	api.Get("/session", func(c *fiber.Ctx) error {
		return c.JSON(sessionView(middleware.SessionFrom(c).State()))
	})

	api.Get("/notifications", notifications.List)
	api.Get("/notifications/stream", notifications.Stream)
	api.Post("/notifications/read-all", notifications.MarkAllRead)
	api.Post("/notifications",
		middleware.RequireRole(session.RoleAdmin),
		// Replayed retries are answered before they count against the quota.
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
		middleware.RateLimit(d.Cache, "dispatch", d.Cfg.DispatchPerMinute, time.Minute),
		notifications.Send)
}
