package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/brandbridge/portal/internal/auth"
	"github.com/brandbridge/portal/internal/config"
	"github.com/brandbridge/portal/internal/identity"
	"github.com/brandbridge/portal/internal/logging"
	"github.com/brandbridge/portal/internal/middleware"
	"github.com/brandbridge/portal/internal/notification"
	"github.com/brandbridge/portal/internal/profile"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Wiring holds what the server needs after routes are registered.
type Wiring struct {
	Tokens        *auth.Service
	Notifications *notification.Handler
}

// Setup configures middlewares and all application routes. Without a
// database or Redis, which is only allowed in development, in-memory
// backends seeded with the demo accounts are used instead.
func Setup(app *fiber.App, d Deps) (*Wiring, error) {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	var (
		users    identity.Repository
		profiles profile.Repository
		notes    notification.Repository
		broker   notification.Broker
	)
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
		profiles = profile.NewPostgresRepository(d.DB)
		notes = notification.NewPostgresRepository(d.DB)
	} else {
		memUsers := identity.NewMemoryRepository()
		memProfiles := profile.NewMemoryRepository()
		for _, u := range identity.DemoUsers(time.Now()) {
			memUsers.Add(u)
		}
		memProfiles.Set(identity.DemoInfluencer.ID, false)
		users, profiles, notes = memUsers, memProfiles, notification.NewMemoryRepository()
		d.Logger.Warn("no database configured, using in-memory backends")
	}
	if d.Cache != nil {
		broker = notification.NewRedisBroker(d.Cache, logging.Component(d.Logger, "broker"))
	} else {
		broker = notification.NewMemoryBroker()
	}

	tokens := auth.NewService(d.Cfg.JWTSecret, d.Cfg.JWTIssuer, d.Cfg.TokenTTL, users)
	dispatcher := notification.NewDispatcher(notes, broker, logging.Component(d.Logger, "dispatcher"))
	notifications := notification.NewHandler(notes, broker, dispatcher, logging.Component(d.Logger, "feed"), d.Cfg.StreamHeartbeat)

	if d.DB == nil {
		seedWelcome(dispatcher, d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger, "/healthz"))
	app.Use(middleware.Session(tokens, d.Cfg.SessionCookie, logging.Component(d.Logger, "session")))

	RegisterHealthRoutes(app, d)
	RegisterAuthRoutes(app, tokens, users, d.Cfg, d.DB == nil, d.Logger)
	RegisterPageRoutes(app, profiles, d.Cfg.ProfileReadTimeout, logging.Component(d.Logger, "guard"))
	RegisterAPIRoutes(app.Group("/api/v1"), notifications, d)

	return &Wiring{Tokens: tokens, Notifications: notifications}, nil
}

func seedWelcome(dispatcher *notification.Dispatcher, logger *slog.Logger) {
	for _, u := range identity.DemoUsers(time.Now()) {
		_, err := dispatcher.Send(context.Background(), notification.SendInput{
			UserID:  u.ID,
			Role:    u.Role,
			Type:    "welcome",
			Title:   "Welcome to BrandBridge",
			Message: "Your workspace is ready.",
		})
		if err != nil {
			logger.Warn("seed notification failed", slog.String("user_id", u.ID), slog.Any("error", err))
		}
	}
}
