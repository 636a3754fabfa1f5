package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"socialcast/internal/models"
)

// PostgresSettingsStore reads authored status rules and scalar options.
// Rule sets are stored as JSON documents, one row per content type and
// one optional row per overriding item.
type PostgresSettingsStore struct {
	db *sql.DB
}

func NewPostgresSettingsStore(db *sql.DB) *PostgresSettingsStore {
	return &PostgresSettingsStore{db: db}
}

func (s *PostgresSettingsStore) RuleSet(ctx context.Context, scope RuleScope) (*models.RuleSet, error) {
	var query string
	var arg interface{}
	if scope.Override {
		query = `SELECT rules FROM item_rule_sets WHERE content_id = $1`
		arg = scope.ContentID
	} else {
		query = `SELECT rules FROM type_rule_sets WHERE content_type = $1`
		arg = scope.ContentType
	}

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		// Nothing authored for this scope: an empty rule set, not an
		// error, so the caller reports "nothing enabled".
		return &models.RuleSet{}, nil
	}
	if err != nil {
		return nil, err
	}

	var rs models.RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	return &rs, nil
}

func (s *PostgresSettingsStore) Override(ctx context.Context, contentID int64) (models.OverrideMode, error) {
	var mode int
	err := s.db.QueryRowContext(ctx, `SELECT mode FROM dispatch_overrides WHERE content_id = $1`, contentID).Scan(&mode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OverrideUseDefault, nil
	}
	if err != nil {
		return models.OverrideUseDefault, err
	}
	return models.OverrideMode(mode), nil
}

func (s *PostgresSettingsStore) Option(ctx context.Context, key string, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM engine_options WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return value, nil
}
