package notification

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/brandbridge/portal/internal/logging"
)

const defaultHeartbeat = 15 * time.Second

// Handler exposes the notification feed over HTTP. It expects the session
// middleware to have stored the caller's identity in Locals("user_id").
type Handler struct {
	repo       Repository
	broker     Broker
	dispatcher *Dispatcher
	logger     *slog.Logger
	heartbeat  time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

// NewHandler builds a notification HTTP handler.
func NewHandler(repo Repository, broker Broker, dispatcher *Dispatcher, logger *slog.Logger, heartbeat time.Duration) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handler{
		repo:       repo,
		broker:     broker,
		dispatcher: dispatcher,
		logger:     logger,
		heartbeat:  heartbeat,
		closing:    make(chan struct{}),
	}
}

// Close ends every open stream so the server can shut down.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// List returns the caller's feed.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	feed := NewFeed(h.repo, nil, h.logger)
	defer feed.Close()
	if err := feed.SetIdentity(c.UserContext(), userID); err != nil {
		return readError(err)
	}
	return c.Status(http.StatusOK).JSON(feed.State())
}

// MarkAllRead flags the caller's notifications as read and returns the
// refreshed feed.
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	feed := NewFeed(h.repo, nil, h.logger)
	defer feed.Close()
	if err := feed.SetIdentity(c.UserContext(), userID); err != nil {
		return readError(err)
	}
	state, err := feed.MarkAllAsRead(c.UserContext())
	if err != nil {
		return readError(err)
	}
	return c.Status(http.StatusOK).JSON(state)
}

// Send dispatches a notification to another identity.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req SendInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	n, err := h.dispatcher.Send(c.UserContext(), req)
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.Error("notification dispatch failed", slog.String("user_id", req.UserID), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "notification could not be stored")
	}
	return c.Status(http.StatusCreated).JSON(n)
}

// Stream mounts a live feed for the connection and pushes every state change
// as a server-sent "feed" event. The feed is closed when the client goes away.
func (h *Handler) Stream(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With(slog.String("user_id", userID))
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		feed := NewFeed(h.repo, h.broker, logger)
		defer feed.Close()

		// Only the latest state matters to a slow client.
		updates := make(chan FeedState, 1)
		unsubscribe := feed.OnChange(func(s FeedState) {
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		})
		defer unsubscribe()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := feed.SetIdentity(ctx, userID); err != nil {
			logger.Warn("initial feed read failed", slog.Any("error", err))
		}
		select {
		case <-updates:
		default:
		}
		if err := writeEvent(w, "feed", feed.State()); err != nil {
			return
		}

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-h.closing:
				return
			case state := <-updates:
				if err := writeEvent(w, "feed", state); err != nil {
					logger.Debug("feed stream closed", slog.Any("error", err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					logger.Debug("feed stream closed", slog.Any("error", err))
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}

func callerID(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

func readError(err error) error {
	switch {
	case errors.Is(err, ErrTransientRead):
		return fiber.NewError(http.StatusServiceUnavailable, "notifications temporarily unavailable")
	case errors.Is(err, ErrWrite):
		return fiber.NewError(http.StatusInternalServerError, "notifications could not be updated")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
