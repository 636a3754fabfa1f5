// Package store defines the collaborator contracts the engine consumes
// and their PostgreSQL implementations.
package store

import (
	"context"
	"errors"
	"time"

	"socialcast/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ContentStore exposes read access to content items, their authors,
// taxonomy terms and custom fields.
type ContentStore interface {
	Get(ctx context.Context, id int64) (*models.ContentItem, error)
	Author(ctx context.Context, id int64) (*models.Author, error)
	// Terms returns the item's terms for one taxonomy, in stored order.
	Terms(ctx context.Context, id int64, taxonomy string) ([]models.Term, error)
	// Field returns a raw custom field value, or nil when absent.
	Field(ctx context.Context, id int64, key string) (interface{}, error)
	// AuthorField returns a raw author attribute, or nil when absent.
	AuthorField(ctx context.Context, authorID int64, key string) (interface{}, error)
}

// RuleScope selects which rule set a settings lookup targets.
type RuleScope struct {
	// ContentType scopes the content type's default rule set.
	ContentType string
	// ContentID scopes a per-item override rule set when Override is
	// true.
	ContentID int64
	Override  bool
}

// SettingsStore exposes authored status rules and scalar options.
type SettingsStore interface {
	RuleSet(ctx context.Context, scope RuleScope) (*models.RuleSet, error)
	// Override returns the three-state per-item override indicator.
	Override(ctx context.Context, contentID int64) (models.OverrideMode, error)
	Option(ctx context.Context, key string, def string) (string, error)
}

// MarkerStore persists the trigger resolver's sticky idempotency markers
// and the per-item last-dispatch timestamp backing the debounce guard.
type MarkerStore interface {
	Marker(ctx context.Context, contentID int64, action models.Action) (bool, error)
	SetMarker(ctx context.Context, contentID int64, action models.Action) error
	ClearMarker(ctx context.Context, contentID int64, action models.Action) error

	LastDispatch(ctx context.Context, contentID int64) (time.Time, error)
	SetLastDispatch(ctx context.Context, contentID int64, at time.Time) error

	// SetDispatchOutcome records the content-level all-good / has-errors
	// indicator driven by the aggregate batch result.
	SetDispatchOutcome(ctx context.Context, contentID int64, ok bool) error
}

// AuditLogger is the append-only dispatch log. The engine never reads
// entries back.
type AuditLogger interface {
	Record(ctx context.Context, contentID int64, entry models.DispatchResult) error
	Enabled() bool
}

// DeferredScheduler registers a task to run once after a delay,
// at-least-once.
type DeferredScheduler interface {
	Schedule(delay time.Duration, task models.DeferredTask) error
}
