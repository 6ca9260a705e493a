package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brandbridge/portal/internal/logging"
	"github.com/brandbridge/portal/internal/session"
)

// SendInput describes a notification to deliver.
type SendInput struct {
	UserID   string   `json:"user_id"`
	Role     string   `json:"role"`
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Metadata Metadata `json:"metadata"`
}

// Dispatcher stores a notification and announces it to live feeds.
type Dispatcher struct {
	repo   Repository
	broker Broker
	logger *slog.Logger
	now    func() time.Time
}

// NewDispatcher wires a dispatcher. broker may be nil.
func NewDispatcher(repo Repository, broker Broker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{repo: repo, broker: broker, logger: logger, now: time.Now}
}

// Send inserts one unread notification and publishes its insertion event. A
// failed publish is only logged; feeds pick the record up on their next read.
func (d *Dispatcher) Send(ctx context.Context, in SendInput) (Notification, error) {
	n, err := d.build(in)
	if err != nil {
		return Notification{}, err
	}
	if err := d.repo.Insert(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if d.broker != nil {
		event := Event{NotificationID: n.ID, UserID: n.UserID, CreatedAt: n.CreatedAt}
		if err := d.broker.Publish(ctx, event); err != nil {
			d.logger.Warn("notification publish failed",
				slog.String("user_id", n.UserID),
				slog.String("notification_id", n.ID),
				slog.Any("error", err))
		}
	}

	d.logger.Info("notification sent",
		slog.String("user_id", n.UserID),
		slog.String("notification_id", n.ID),
		slog.String("type", n.Type))
	return n, nil
}

func (d *Dispatcher) build(in SendInput) (Notification, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return Notification{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	role, err := session.ParseRole(in.Role)
	if err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return Notification{}, fmt.Errorf("%w: type is required", ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Notification{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Message) == "" {
		return Notification{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	return Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Type:      typ,
		Title:     title,
		Message:   in.Message,
		Metadata:  in.Metadata,
		CreatedAt: d.now().UTC(),
	}, nil
}
