// Package rules resolves which status rule set governs a dispatch.
package rules

import (
	"context"
	"fmt"

	"socialcast/internal/models"
	"socialcast/internal/store"
)

// Resolver applies the three-state per-item override indicator: do not
// post, use the content type's defaults, or use the item's own rules.
type Resolver struct {
	settings store.SettingsStore
}

func NewResolver(settings store.SettingsStore) *Resolver {
	return &Resolver{settings: settings}
}

// Resolve returns the governing rule set for item, or (nil, false) when
// the item is marked do-not-post. Do-not-post is a clean outcome, not an
// error.
func (r *Resolver) Resolve(ctx context.Context, item *models.ContentItem) (*models.RuleSet, bool, error) {
	mode, err := r.settings.Override(ctx, item.ID)
	if err != nil {
		return nil, false, fmt.Errorf("rules: override lookup for %d: %w", item.ID, err)
	}

	switch mode {
	case models.OverrideDoNotPost:
		return nil, false, nil
	case models.OverrideUseItem:
		rs, err := r.settings.RuleSet(ctx, store.RuleScope{ContentID: item.ID, Override: true})
		if err != nil {
			return nil, false, fmt.Errorf("rules: item rule set for %d: %w", item.ID, err)
		}
		return rs, true, nil
	default:
		rs, err := r.settings.RuleSet(ctx, store.RuleScope{ContentType: item.Type})
		if err != nil {
			return nil, false, fmt.Errorf("rules: default rule set for %q: %w", item.Type, err)
		}
		return rs, true, nil
	}
}
