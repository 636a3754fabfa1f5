package handlers

import (
	"context"

	"socialcast/internal/dispatch"
	"socialcast/internal/models"
	"socialcast/internal/trigger"
)

// TriggerResolver converts lifecycle signals into dispatch work.
type TriggerResolver interface {
	Resolve(ctx context.Context, sig trigger.Signal) (trigger.Outcome, error)
	MetadataPersisted(ctx context.Context, contentID int64) (trigger.Outcome, error)
}

// Dispatcher runs one dispatch batch for manual and bulk requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, contentID int64, action models.Action, opts dispatch.Options) ([]models.DispatchResult, error)
}

// ContentReader loads the item a lifecycle signal refers to.
type ContentReader interface {
	Get(ctx context.Context, id int64) (*models.ContentItem, error)
}
