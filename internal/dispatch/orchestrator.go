// Package dispatch orchestrates one batch of status creations for a
// content item and action: rule resolution, condition gating, rendering,
// scheduling, per-service payload fixups and sequential provider calls.
package dispatch

import (
	"context"
	"errors"
	"regexp"
	"time"

	"socialcast/internal/models"
	"socialcast/internal/store"
	"socialcast/pkg/logging"
)

// Config carries the orchestrator's static settings.
type Config struct {
	// Credentials is the provider API key. Blank aborts every dispatch
	// with ErrMissingCredentials.
	Credentials string
	// DeprecatedServices are skipped even when their profiles still
	// appear in authored rule sets.
	DeprecatedServices []string
	// MentionEntityService names the service whose @mention entities
	// carry character offsets. Its payloads get a rich-text duplicate
	// and per-payload shortening disable.
	MentionEntityService string
}

// DefaultConfig returns the service defaults. Google+ rules linger in
// long-lived installations; Bluesky facets break when links are
// shortened after offsets are computed.
func DefaultConfig(credentials string) Config {
	return Config{
		Credentials:          credentials,
		DeprecatedServices:   []string{"googleplus"},
		MentionEntityService: "bluesky",
	}
}

// Options are per-call dispatch options.
type Options struct {
	// TestMode synthesizes results without contacting the provider.
	TestMode bool
	// ForceRefreshProfiles bypasses the profile list cache.
	ForceRefreshProfiles bool
}

// Metrics are the optional counters the orchestrator drives.
type Metrics struct {
	// Dispatches observes one orchestration with its aggregate status.
	Dispatches func(action models.Action, status string)
	// Payloads observes one payload result per service.
	Payloads func(service, result string)
	// Duration observes one orchestration's wall time.
	Duration func(action models.Action, seconds float64)
}

// Some services cannot display certain image modes; their payloads are
// coerced to the nearest supported mode before sending.
var imageModeFixups = map[string]map[models.ImageMode]models.ImageMode{
	"bluesky":  {models.ImageOpenGraph: models.ImageFeatured},
	"telegram": {models.ImageOpenGraph: models.ImageFeatured},
	"reddit":   {models.ImageOpenGraph: models.ImageNone, models.ImageFeatured: models.ImageNone},
}

var mentionPattern = regexp.MustCompile(`(^|\s)@[\w.-]+`)

// Orchestrator runs the dispatch pipeline. All collaborators are
// injected; the orchestrator holds no cross-call state.
type Orchestrator struct {
	rules      RuleResolver
	conditions ConditionEvaluator
	schedule   ScheduleResolver
	renderer   MessageRenderer
	images     ImageResolver
	directory  ProfileDirectory
	content    store.ContentStore
	markers    store.MarkerStore
	audit      store.AuditLogger
	logger     logging.Logger
	cfg        Config
	metrics    Metrics
	now        func() time.Time
}

func NewOrchestrator(
	rules RuleResolver,
	conditions ConditionEvaluator,
	schedule ScheduleResolver,
	renderer MessageRenderer,
	images ImageResolver,
	directory ProfileDirectory,
	content store.ContentStore,
	markers store.MarkerStore,
	audit store.AuditLogger,
	logger logging.Logger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		rules:      rules,
		conditions: conditions,
		schedule:   schedule,
		renderer:   renderer,
		images:     images,
		directory:  directory,
		content:    content,
		markers:    markers,
		audit:      audit,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetMetrics installs optional metric hooks.
func (o *Orchestrator) SetMetrics(m Metrics) {
	o.metrics = m
}

// Dispatch runs one batch for a content item and action. A do-not-post
// override returns (nil, nil). Zero produced payloads return one of the
// two distinct empty-batch errors. Per-payload failures never abort the
// batch; they come back as error results.
func (o *Orchestrator) Dispatch(ctx context.Context, contentID int64, action models.Action, opts Options) ([]models.DispatchResult, error) {
	started := o.now()
	if o.metrics.Duration != nil {
		defer func() {
			o.metrics.Duration(action, time.Since(started).Seconds())
		}()
	}

	item, err := o.content.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}

	ruleSet, post, err := o.rules.Resolve(ctx, item)
	if err != nil {
		return nil, err
	}
	if !post {
		o.logger.WithFields(logging.Fields{"content_id": contentID}).Info("Item is marked do-not-post, skipping dispatch")
		return nil, nil
	}

	if o.cfg.Credentials == "" {
		return nil, ErrMissingCredentials
	}

	author, err := o.content.Author(ctx, item.AuthorID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	profileList, err := o.directory.List(ctx, opts.ForceRefreshProfiles)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Profile, len(profileList))
	for _, p := range profileList {
		byID[p.ID] = p
	}

	payloads, evaluated := o.buildPayloads(ctx, ruleSet, byID, item, author, action)
	if len(payloads) == 0 {
		if evaluated {
			return nil, ErrNoApplicableStatus
		}
		return nil, ErrNoEnabledStatus
	}

	results := o.send(ctx, payloads, action, opts.TestMode)

	anyError := false
	for _, r := range results {
		if r.Kind == models.ResultError {
			anyError = true
		}
		if o.metrics.Payloads != nil {
			o.metrics.Payloads(serviceFor(payloads, r.ProfileID), string(r.Kind))
		}
	}

	// The last-dispatch timestamp moves exactly once per call; it backs
	// the trigger resolver's debounce guard.
	if err := o.markers.SetLastDispatch(ctx, contentID, o.now()); err != nil {
		o.logger.WithFields(logging.Fields{"content_id": contentID, "error": err.Error()}).Error("Failed to record last dispatch time")
	}
	if err := o.markers.SetDispatchOutcome(ctx, contentID, !anyError); err != nil {
		o.logger.WithFields(logging.Fields{"content_id": contentID, "error": err.Error()}).Error("Failed to record dispatch outcome")
	}

	if o.audit.Enabled() {
		for _, r := range results {
			_ = o.audit.Record(ctx, contentID, r)
		}
	}
	if o.metrics.Dispatches != nil {
		status := "ok"
		if anyError {
			status = "partial_failure"
		}
		o.metrics.Dispatches(action, status)
	}

	return results, nil
}

// buildPayloads walks the rule set in author order and renders one
// payload per passing definition. evaluated reports whether any enabled
// definition reached condition evaluation, which distinguishes the two
// empty-batch errors.
func (o *Orchestrator) buildPayloads(ctx context.Context, ruleSet *models.RuleSet, byID map[string]models.Profile, item *models.ContentItem, author *models.Author, action models.Action) ([]models.DispatchPayload, bool) {
	session := o.renderer.Session(item, author)
	var payloads []models.DispatchPayload
	evaluated := false

	for i := range ruleSet.Profiles {
		pr := &ruleSet.Profiles[i]
		if pr.ProfileID == models.DefaultProfileKey {
			continue
		}
		if !visibleTo(pr.Roles, author) {
			continue
		}
		profile, ok := byID[pr.ProfileID]
		if !ok || !profile.Enabled {
			continue
		}
		if o.isDeprecated(profile.Service) {
			o.logger.WithFields(logging.Fields{"profile_id": pr.ProfileID, "service": profile.Service}).Debug("Skipping deprecated service")
			continue
		}

		actionRules, ok := pr.Actions[action]
		if !ok {
			if fallback := ruleSet.Rules(models.DefaultProfileKey); fallback != nil {
				actionRules, ok = fallback.Actions[action]
			}
		}
		if !ok || !actionRules.Enabled {
			continue
		}

		for j := range actionRules.Statuses {
			def := &actionRules.Statuses[j]
			if !visibleTo(def.Roles, author) {
				continue
			}
			evaluated = true

			pass, reason, err := o.conditions.Evaluate(ctx, def, item, author)
			if err != nil {
				payloads = append(payloads, errorPayload(pr.ProfileID, profile.Service, action, err))
				continue
			}
			if !pass {
				o.logger.WithFields(logging.Fields{
					"content_id": item.ID,
					"profile_id": pr.ProfileID,
					"reason":     reason,
				}).Debug("Status definition skipped by conditions")
				continue
			}

			payloads = append(payloads, o.buildPayload(ctx, session, pr.ProfileID, profile.Service, def, item, action))
		}
	}
	return payloads, evaluated
}

func (o *Orchestrator) buildPayload(ctx context.Context, session RenderSession, profileID, service string, def *models.StatusDefinition, item *models.ContentItem, action models.Action) models.DispatchPayload {
	// The mention-entity service may need both link treatments of the
	// message; they must come from one expansion or alternation choices
	// diverge between the text and its rich-text duplicate.
	mentionService := service == o.cfg.MentionEntityService
	var text, stripped string
	var err error
	if mentionService {
		text, stripped, err = session.RenderVariants(ctx, def.Message)
	} else {
		text, err = session.Render(ctx, def.Message, true)
	}
	if err != nil {
		return errorPayload(profileID, service, action, err)
	}

	instruction, err := o.schedule.Resolve(ctx, def.Schedule, item, action)
	if err != nil {
		return errorPayload(profileID, service, action, err)
	}

	imageMode := coerceImageMode(service, def.ImageMode)
	imageURL := ""
	if imageMode != models.ImageNone {
		imageURL, err = o.images.ResolveImage(ctx, item, imageMode)
		if err != nil {
			return errorPayload(profileID, service, action, err)
		}
	}

	payload := models.DispatchPayload{
		ProfileID:    profileID,
		Service:      service,
		Action:       action,
		Text:         text,
		ImageURL:     imageURL,
		ImageMode:    imageMode,
		Schedule:     instruction,
		ShortenLinks: true,
		Extra:        def.Extensions[service],
	}

	// Mention entities carry character offsets computed against the
	// link-bearing text; shortening or inline URLs would invalidate
	// them, so this service gets the stripped variant as text plus the
	// link-bearing one as a rich-text duplicate.
	if mentionService && mentionPattern.MatchString(text) {
		payload.RichText = text
		payload.Text = stripped
		payload.ShortenLinks = false
	}

	return payload
}

// send processes payloads strictly sequentially so the resulting log
// order is deterministic and the provider is never burst.
func (o *Orchestrator) send(ctx context.Context, payloads []models.DispatchPayload, action models.Action, testMode bool) []models.DispatchResult {
	results := make([]models.DispatchResult, 0, len(payloads))
	for _, p := range payloads {
		r := models.DispatchResult{
			Action:    action,
			Timestamp: o.now().UTC(),
			ProfileID: p.ProfileID,
			Text:      p.Text,
		}

		switch {
		case p.Err != nil:
			r.Kind = models.ResultError
			r.Message = p.Err.Error()
		case testMode:
			r.Kind = models.ResultTest
			r.Message = "test mode, nothing sent"
		default:
			receipt, err := o.directory.CreateStatus(ctx, p)
			if err != nil {
				terr := &TransportError{ProfileID: p.ProfileID, Cause: err}
				r.Kind = models.ResultError
				r.Message = terr.Error()
				o.logger.WithFields(logging.Fields{"profile_id": p.ProfileID, "error": err.Error()}).Error("Provider call failed")
			} else {
				r.Kind = models.ResultSuccess
				// A future due-at means the provider queued the status
				// for later delivery rather than publishing it.
				if !receipt.DueAt.IsZero() && receipt.DueAt.After(r.Timestamp) {
					r.Kind = models.ResultPending
				}
				r.Message = receipt.Message
				r.ProviderCreatedAt = receipt.CreatedAt
				r.ProviderDueAt = receipt.DueAt
			}
		}
		results = append(results, r)
	}
	return results
}

func (o *Orchestrator) isDeprecated(service string) bool {
	for _, s := range o.cfg.DeprecatedServices {
		if s == service {
			return true
		}
	}
	return false
}

func errorPayload(profileID, service string, action models.Action, cause error) models.DispatchPayload {
	return models.DispatchPayload{
		ProfileID: profileID,
		Service:   service,
		Action:    action,
		Err:       &RenderError{ProfileID: profileID, Cause: cause},
	}
}

func coerceImageMode(service string, mode models.ImageMode) models.ImageMode {
	if fixups, ok := imageModeFixups[service]; ok {
		if coerced, ok := fixups[mode]; ok {
			return coerced
		}
	}
	return mode
}

func visibleTo(roles []string, author *models.Author) bool {
	if len(roles) == 0 {
		return true
	}
	if author == nil {
		return false
	}
	for _, role := range roles {
		if author.HasRole(role) {
			return true
		}
	}
	return false
}

func serviceFor(payloads []models.DispatchPayload, profileID string) string {
	for _, p := range payloads {
		if p.ProfileID == profileID {
			return p.Service
		}
	}
	return "unknown"
}
