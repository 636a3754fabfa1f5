// Package audit is the append-only dispatch log. The engine writes every
// batch result here when logging is enabled; nothing reads entries back.
package audit

import (
	"context"
	"database/sql"
	"time"

	"socialcast/internal/models"
	"socialcast/pkg/logging"
)

// Log writes dispatch results to Postgres. A disabled log drops entries
// without touching the database.
type Log struct {
	db      *sql.DB
	enabled bool
	logger  logging.Logger
}

func NewLog(db *sql.DB, enabled bool, logger logging.Logger) *Log {
	return &Log{db: db, enabled: enabled, logger: logger}
}

func (l *Log) Enabled() bool {
	return l.enabled
}

func (l *Log) Record(ctx context.Context, contentID int64, entry models.DispatchResult) error {
	if !l.enabled {
		return nil
	}

	query := `
		INSERT INTO dispatch_log
			(content_id, action, profile_id, kind, message, text,
			 provider_created_at, provider_due_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, query,
		contentID, string(entry.Action), entry.ProfileID, string(entry.Kind),
		entry.Message, entry.Text,
		nullableTime(entry.ProviderCreatedAt), nullableTime(entry.ProviderDueAt), ts,
	)
	if err != nil {
		l.logger.WithFields(logging.Fields{
			"content_id": contentID,
			"profile_id": entry.ProfileID,
			"error":      err.Error(),
		}).Error("Failed to write dispatch log entry")
	}
	return err
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
