// Package trigger converts content lifecycle signals into at most one
// dispatch per logical edit, across the three authoring transports.
package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"socialcast/internal/dispatch"
	"socialcast/internal/models"
	"socialcast/internal/store"
	"socialcast/pkg/logging"
)

// Outcome is the terminal result of resolving one lifecycle signal.
type Outcome int

const (
	OutcomeNoOp Outcome = iota
	OutcomeFlagSet
	OutcomeTaskRegistered
	OutcomeCallbackRegistered
	OutcomeDispatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFlagSet:
		return "flag-set"
	case OutcomeTaskRegistered:
		return "task-registered"
	case OutcomeCallbackRegistered:
		return "callback-registered"
	case OutcomeDispatched:
		return "dispatched"
	default:
		return "no-op"
	}
}

// Signal is one lifecycle transition delivered by the authoring host.
type Signal struct {
	Previous  models.LifecycleStatus
	New       models.LifecycleStatus
	Item      *models.ContentItem
	Transport models.Transport
}

// Dispatcher is the orchestrator entry point the resolver drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, contentID int64, action models.Action, opts dispatch.Options) ([]models.DispatchResult, error)
}

// Config holds the resolver's settings.
type Config struct {
	// AsyncDispatch defers every dispatch through the scheduler instead
	// of running inline in the signal handler.
	AsyncDispatch bool
	// DeferredDelay is the wait before a deferred task fires. It gives
	// transport-specific metadata time to settle (default: 30s).
	DeferredDelay time.Duration
	// DebounceWindow drops update signals arriving this soon after the
	// last dispatch (default: 5s).
	DebounceWindow time.Duration
	// SupportedTypes limits which content types dispatch. Empty means
	// all types.
	SupportedTypes []string
}

func DefaultConfig() Config {
	return Config{
		DeferredDelay:  30 * time.Second,
		DebounceWindow: 5 * time.Second,
	}
}

// Resolver is the lifecycle state machine. Sticky per-item markers make
// the two-signal deferred-metadata pattern dispatch exactly once.
type Resolver struct {
	markers    store.MarkerStore
	scheduler  store.DeferredScheduler
	dispatcher Dispatcher
	logger     logging.Logger
	cfg        Config
	now        func() time.Time

	mu        sync.Mutex
	callbacks map[int64]models.Action
}

func NewResolver(markers store.MarkerStore, scheduler store.DeferredScheduler, dispatcher Dispatcher, logger logging.Logger, cfg Config) *Resolver {
	if cfg.DeferredDelay == 0 {
		cfg.DeferredDelay = 30 * time.Second
	}
	if cfg.DebounceWindow == 0 {
		cfg.DebounceWindow = 5 * time.Second
	}
	return &Resolver{
		markers:    markers,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		callbacks:  make(map[int64]models.Action),
	}
}

// Resolve handles one lifecycle signal. Failures inside the orchestrator
// are returned to the signal's caller; nothing is retried here.
func (r *Resolver) Resolve(ctx context.Context, sig Signal) (Outcome, error) {
	if sig.Item == nil || sig.New.Suppressed() || !r.typeSupported(sig.Item.Type) {
		return OutcomeNoOp, nil
	}
	if sig.New != models.StatusPublish {
		return OutcomeNoOp, nil
	}

	contentID := sig.Item.ID

	// A scheduler-released future item is always a direct first publish;
	// its metadata settled when the item was scheduled.
	if sig.Previous == models.StatusFuture {
		return r.dispatchOrDefer(ctx, contentID, models.ActionPublish)
	}

	action := models.ActionPublish
	if sig.Previous == models.StatusPublish {
		action = models.ActionUpdate
	}

	// A sticky marker means this is the second signal of a two-signal
	// edit. Consume it; in async mode the task was registered with the
	// first signal, so nothing more happens here.
	set, err := r.markers.Marker(ctx, contentID, action)
	if err != nil {
		return OutcomeNoOp, err
	}
	// Some hosts report publish->publish once the item is live, even
	// when the first signal of the pair was a first publish. A pending
	// needs-publish marker wins over the transition-derived action.
	if !set && action == models.ActionUpdate {
		set, err = r.markers.Marker(ctx, contentID, models.ActionPublish)
		if err != nil {
			return OutcomeNoOp, err
		}
		if set {
			action = models.ActionPublish
		}
	}
	if set {
		if err := r.markers.ClearMarker(ctx, contentID, action); err != nil {
			return OutcomeNoOp, err
		}
		if r.cfg.AsyncDispatch {
			return OutcomeNoOp, nil
		}
		return r.invoke(ctx, contentID, action)
	}

	if action == models.ActionUpdate {
		drop, err := r.debounced(ctx, contentID)
		if err != nil {
			return OutcomeNoOp, err
		}
		if drop {
			r.logger.WithFields(logging.Fields{"content_id": contentID}).Debug("Update signal dropped by debounce guard")
			return OutcomeNoOp, nil
		}
	}

	switch sig.Transport {
	case models.TransportDeferredMeta:
		if err := r.markers.SetMarker(ctx, contentID, action); err != nil {
			return OutcomeNoOp, err
		}
		// The second signal on this transport cannot register tasks, so
		// in async mode the task is registered now, with the flag.
		if r.cfg.AsyncDispatch {
			if err := r.register(contentID, action); err != nil {
				return OutcomeFlagSet, err
			}
			return OutcomeTaskRegistered, nil
		}
		return OutcomeFlagSet, nil

	case models.TransportAPI:
		r.mu.Lock()
		r.callbacks[contentID] = action
		r.mu.Unlock()
		return OutcomeCallbackRegistered, nil

	default:
		return r.dispatchOrDefer(ctx, contentID, action)
	}
}

// MetadataPersisted fires the late-stage callback for an API-submitted
// item once its metadata is guaranteed present.
func (r *Resolver) MetadataPersisted(ctx context.Context, contentID int64) (Outcome, error) {
	r.mu.Lock()
	action, ok := r.callbacks[contentID]
	if ok {
		delete(r.callbacks, contentID)
	}
	r.mu.Unlock()
	if !ok {
		return OutcomeNoOp, nil
	}
	return r.dispatchOrDefer(ctx, contentID, action)
}

func (r *Resolver) dispatchOrDefer(ctx context.Context, contentID int64, action models.Action) (Outcome, error) {
	if r.cfg.AsyncDispatch {
		if err := r.register(contentID, action); err != nil {
			return OutcomeNoOp, err
		}
		return OutcomeTaskRegistered, nil
	}
	return r.invoke(ctx, contentID, action)
}

func (r *Resolver) invoke(ctx context.Context, contentID int64, action models.Action) (Outcome, error) {
	_, err := r.dispatcher.Dispatch(ctx, contentID, action, dispatch.Options{})
	if err != nil {
		return OutcomeDispatched, err
	}
	return OutcomeDispatched, nil
}

func (r *Resolver) register(contentID int64, action models.Action) error {
	task := models.DeferredTask{ContentID: contentID, Action: action}
	if err := r.scheduler.Schedule(r.cfg.DeferredDelay, task); err != nil {
		return fmt.Errorf("trigger: deferred task registration for %d failed: %w", contentID, err)
	}
	return nil
}

func (r *Resolver) debounced(ctx context.Context, contentID int64) (bool, error) {
	last, err := r.markers.LastDispatch(ctx, contentID)
	if err != nil {
		return false, err
	}
	return !last.IsZero() && r.now().Sub(last) < r.cfg.DebounceWindow, nil
}

func (r *Resolver) typeSupported(contentType string) bool {
	if len(r.cfg.SupportedTypes) == 0 {
		return true
	}
	for _, t := range r.cfg.SupportedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}
