package dispatch

import (
	"context"
	"fmt"

	"socialcast/internal/models"
	"socialcast/internal/store"
)

// Custom field keys the content store exposes image URLs under.
const (
	openGraphImageKey = "_og_image"
	featuredImageKey  = "_thumbnail_url"
)

// FieldImageResolver reads image URLs from the item's custom fields.
type FieldImageResolver struct {
	content store.ContentStore
}

func NewFieldImageResolver(content store.ContentStore) *FieldImageResolver {
	return &FieldImageResolver{content: content}
}

func (r *FieldImageResolver) ResolveImage(ctx context.Context, item *models.ContentItem, mode models.ImageMode) (string, error) {
	var key string
	switch mode {
	case models.ImageOpenGraph:
		key = openGraphImageKey
	case models.ImageFeatured:
		key = featuredImageKey
	default:
		return "", nil
	}

	raw, err := r.content.Field(ctx, item.ID, key)
	if err != nil {
		return "", fmt.Errorf("image lookup %q: %w", key, err)
	}
	if raw == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", raw), nil
}
