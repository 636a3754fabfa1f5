package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"socialcast/internal/models"
)

// PostgresMarkerStore persists the sticky needs-publish/needs-update
// markers and the per-item dispatch state backing the debounce guard.
type PostgresMarkerStore struct {
	db *sql.DB
}

func NewPostgresMarkerStore(db *sql.DB) *PostgresMarkerStore {
	return &PostgresMarkerStore{db: db}
}

func (s *PostgresMarkerStore) Marker(ctx context.Context, contentID int64, action models.Action) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM dispatch_markers WHERE content_id = $1 AND action = $2)`
	if err := s.db.QueryRowContext(ctx, query, contentID, string(action)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresMarkerStore) SetMarker(ctx context.Context, contentID int64, action models.Action) error {
	query := `
		INSERT INTO dispatch_markers (content_id, action, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (content_id, action) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, contentID, string(action))
	return err
}

func (s *PostgresMarkerStore) ClearMarker(ctx context.Context, contentID int64, action models.Action) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM dispatch_markers WHERE content_id = $1 AND action = $2`, contentID, string(action))
	return err
}

// LastDispatch returns the zero time when the item has never dispatched.
func (s *PostgresMarkerStore) LastDispatch(ctx context.Context, contentID int64) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx, `SELECT last_dispatch_at FROM dispatch_state WHERE content_id = $1`, contentID).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func (s *PostgresMarkerStore) SetLastDispatch(ctx context.Context, contentID int64, at time.Time) error {
	query := `
		INSERT INTO dispatch_state (content_id, last_dispatch_at)
		VALUES ($1, $2)
		ON CONFLICT (content_id) DO UPDATE SET last_dispatch_at = EXCLUDED.last_dispatch_at
	`
	_, err := s.db.ExecContext(ctx, query, contentID, at)
	return err
}

func (s *PostgresMarkerStore) SetDispatchOutcome(ctx context.Context, contentID int64, ok bool) error {
	query := `
		INSERT INTO dispatch_state (content_id, last_dispatch_at, last_outcome_ok)
		VALUES ($1, NOW(), $2)
		ON CONFLICT (content_id) DO UPDATE SET last_outcome_ok = EXCLUDED.last_outcome_ok
	`
	_, err := s.db.ExecContext(ctx, query, contentID, ok)
	return err
}
