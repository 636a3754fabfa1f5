package dispatch

import (
	"context"

	"socialcast/internal/models"
)

// ProfileDirectory is the remote provider holding social profiles and
// accepting status creations.
type ProfileDirectory interface {
	List(ctx context.Context, forceRefresh bool) ([]models.Profile, error)
	CreateStatus(ctx context.Context, payload models.DispatchPayload) (*models.ProviderReceipt, error)
}

// ImageResolver maps an image mode to a concrete image URL for one
// content item. An empty URL with a nil error means no image.
type ImageResolver interface {
	ResolveImage(ctx context.Context, item *models.ContentItem, mode models.ImageMode) (string, error)
}

// RuleResolver picks the governing rule set, or reports do-not-post.
type RuleResolver interface {
	Resolve(ctx context.Context, item *models.ContentItem) (*models.RuleSet, bool, error)
}

// ConditionEvaluator gates one status definition for one item/author.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, def *models.StatusDefinition, item *models.ContentItem, author *models.Author) (bool, string, error)
}

// ScheduleResolver turns a symbolic schedule into a send instruction.
type ScheduleResolver interface {
	Resolve(ctx context.Context, spec models.ScheduleSpec, item *models.ContentItem, action models.Action) (models.ScheduleInstruction, error)
}
