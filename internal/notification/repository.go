package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandbridge/portal/internal/session"
)

// Repository persists notifications.
type Repository interface {
	// ListRecent returns at most limit notifications of userID, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]Notification, error)
	// MarkAllRead flags every unread notification of userID as read and
	// reports how many changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Insert(ctx context.Context, n Notification) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed notification repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListRecent fetches the newest notifications of a user.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]Notification, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return []Notification{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, user_id, role, type, title, message, metadata, is_read, created_at
        FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var (
			n         Notification
			nid, uid  uuid.UUID
			role      string
			metadata  []byte
			createdAt time.Time
		)
		if err := rows.Scan(&nid, &uid, &role, &n.Type, &n.Title, &n.Message, &metadata, &n.IsRead, &createdAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %s: %w", nid, err)
			}
		}
		n.ID = nid.String()
		n.UserID = uid.String()
		n.Role = session.Role(role)
		n.CreatedAt = createdAt.UTC()
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkAllRead updates only rows that are still unread.
func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Insert stores a new notification.
func (r *PostgresRepository) Insert(ctx context.Context, n Notification) error {
	id, err := uuid.Parse(n.ID)
	if err != nil {
		return fmt.Errorf("parse notification id: %w", err)
	}
	userID, err := uuid.Parse(n.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	var metadata []byte
	if n.Metadata != nil {
		if metadata, err = json.Marshal(n.Metadata); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}
	_, err = r.db.Exec(ctx, `INSERT INTO notifications (id, user_id, role, type, title, message, metadata, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, userID, string(n.Role), n.Type, n.Title, n.Message, metadata, n.IsRead, n.CreatedAt.UTC())
	return err
}
