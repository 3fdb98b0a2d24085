package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = time.Minute
	maxBackoff     = 30 * time.Minute
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler repeats a job on a fixed interval for the serve command.
type Scheduler struct {
	job      Job
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu     sync.Mutex
	status domain.RunStatus
}

// NewScheduler creates a Scheduler that runs job every interval.
func NewScheduler(job Job, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no poll run has completed yet")
	}
	return nil
}

// Status returns a snapshot of the most recent runs.
func (s *Scheduler) Status() domain.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run executes the job immediately and then on every interval until the
// context is cancelled. A failed run is retried with exponential backoff,
// capped at the interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)
	s.metrics.PipelineRunning.Set(1)
	defer s.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := s.interval
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler stopping", "reason", ctx.Err())
				return nil
			}
			s.logger.Error("scheduled run failed", "error", err, "retry_in", backoff)
			wait = min(backoff, s.interval)
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, s.clock, wait) {
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	start := s.clock.Now().UTC()
	s.mu.Lock()
	s.status.LastStart = start
	s.status.Runs++
	s.mu.Unlock()

	err := s.job(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.LastError = err.Error()
		s.status.Failures++
		return err
	}
	s.status.LastSuccess = s.clock.Now().UTC()
	s.status.LastError = ""
	s.ready.Store(true)
	return nil
}

// sleepWithContext is retry.SleepWithContext on an injected clock.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
