// Package profile reads influencer profile completeness.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the profile completeness flag. found is false when the
// identity has no profile row yet.
type Repository interface {
	ProfileComplete(ctx context.Context, userID string) (complete bool, found bool, err error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed profile repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ProfileComplete returns influencer_profiles.profile_completed for userID.
func (r *PostgresRepository) ProfileComplete(ctx context.Context, userID string) (bool, bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		// Not a valid key, so there is no row for it.
		return false, false, nil
	}

	var completed *bool
	err = r.db.QueryRow(ctx, `SELECT profile_completed FROM influencer_profiles WHERE user_id = $1`, id).Scan(&completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read profile flag: %w", err)
	}
	if completed == nil {
		return false, true, nil
	}
	return *completed, true, nil
}
