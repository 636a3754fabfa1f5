// Package sched is the in-process deferred task runner. Registered tasks
// fire once after their delay and re-enter the dispatch pipeline.
package sched

import (
	"context"
	"sync"
	"time"

	"socialcast/internal/models"
	"socialcast/pkg/logging"
)

// Runner executes a fired task. It is the dispatch entry point for
// deferred publishes and updates.
type Runner func(ctx context.Context, task models.DeferredTask) error

// Scheduler fires registered tasks once after their delay. Tasks are
// at-least-once: a failed run is logged, not retried, matching the
// host-scheduler semantics the engine was designed against.
type Scheduler struct {
	runner  Runner
	logger  logging.Logger
	timeout time.Duration

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Config holds the scheduler's settings.
type Config struct {
	Runner Runner
	Logger logging.Logger
	// Timeout bounds one task run (default: 2 minutes).
	Timeout time.Duration
}

func NewScheduler(cfg Config) *Scheduler {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Schedule registers task to fire once after delay.
func (s *Scheduler) Schedule(delay time.Duration, task models.DeferredTask) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return context.Canceled
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			s.run(task)
		case <-s.stopCh:
		}
	}()

	s.logger.WithFields(logging.Fields{
		"content_id": task.ContentID,
		"action":     string(task.Action),
		"delay":      delay.String(),
	}).Debug("Deferred task registered")
	return nil
}

// Stop cancels pending timers and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Deferred scheduler stopped")
}

func (s *Scheduler) run(task models.DeferredTask) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.runner(ctx, task); err != nil {
		s.logger.WithFields(logging.Fields{
			"content_id": task.ContentID,
			"action":     string(task.Action),
			"error":      err.Error(),
		}).Error("Deferred task failed")
		return
	}
	s.logger.WithFields(logging.Fields{
		"content_id": task.ContentID,
		"action":     string(task.Action),
	}).Info("Deferred task completed")
}
