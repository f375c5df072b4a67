// Package scheduler implements the Scheduler + Worker of spec.md §4.8-§4.9:
// recurring ScanJob enrollment, a single-concurrency worker delegating to
// the Orchestrator, periodic stats logging, and graceful shutdown.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/internal/orchestrator"
	"github.com/mselser95/arb-scanner/internal/queue"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"go.uber.org/zap"
)

// Config controls recurring enrollment cadence, dequeue polling, retry
// backoff, and stats reporting.
type Config struct {
	RecurringPairs    []queue.ScanJob
	RecurringInterval time.Duration
	FetchLimit        int
	DequeueTimeout    time.Duration
	StatsInterval     time.Duration
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
}

// DefaultConfig returns the PM×MAN, KAL×PM, KAL×MAN recurring set at a 60s
// cadence, per spec.md §4.9.
func DefaultConfig(fetchLimit int) Config {
	return Config{
		RecurringPairs: []queue.ScanJob{
			{PlatformA: "PM", PlatformB: "MAN", Limit: fetchLimit},
			{PlatformA: "KAL", PlatformB: "PM", Limit: fetchLimit},
			{PlatformA: "KAL", PlatformB: "MAN", Limit: fetchLimit},
		},
		RecurringInterval: 60 * time.Second,
		FetchLimit:        fetchLimit,
		DequeueTimeout:    5 * time.Second,
		StatsInterval:     30 * time.Second,
		RetryInitialDelay: 2 * time.Second,
		RetryMaxDelay:     20 * time.Second,
	}
}

// Runner executes one ScanJob end to end. Satisfied by
// *orchestrator.Orchestrator; kept as an interface so the worker loop is
// testable without a live Cache/Adapter stack.
type Runner interface {
	Run(ctx context.Context, job queue.ScanJob, progress orchestrator.ProgressFunc) (*orchestrator.Result, error)
}

// Scheduler enrolls recurring jobs, runs a single-concurrency worker over
// the Queue, and logs periodic stats until Stop is called.
type Scheduler struct {
	cfg    Config
	queue  *queue.Queue
	cache  cache.Cache
	runner Runner
	logger *zap.Logger

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// New builds a Scheduler over an already-constructed Queue, Cache, and
// Runner (normally an *orchestrator.Orchestrator).
func New(cfg Config, q *queue.Queue, c cache.Cache, r Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, queue: q, cache: c, runner: r, logger: logger, stop: make(chan struct{})}
}

// Run enrolls the recurring jobs and starts the worker, recurring-poll, and
// stats loops. It blocks until ctx is cancelled or Stop is called, then
// drains the waiting list and returns.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, job := range s.cfg.RecurringPairs {
		if err := s.queue.EnqueueRecurring(ctx, job, s.cfg.RecurringInterval); err != nil {
			return err
		}
		s.logger.Info("scheduler-enrolled-recurring-job",
			zap.String("platformA", string(job.PlatformA)),
			zap.String("platformB", string(job.PlatformB)),
			zap.Duration("every", s.cfg.RecurringInterval))
	}

	s.wg.Add(3)
	go s.recurringLoop(ctx)
	go s.statsLoop(ctx)
	go s.workerLoop(ctx)

	select {
	case <-ctx.Done():
	case <-s.stop:
	}

	s.wg.Wait()

	if err := s.queue.Drain(context.Background()); err != nil {
		s.logger.Warn("scheduler-drain-failed", zap.Error(err))
	}

	if err := s.queue.Close(); err != nil {
		s.logger.Warn("scheduler-queue-close-failed", zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("scheduler-cache-close-failed", zap.Error(err))
		}
	}
	return nil
}

// Stop signals the scheduler to stop accepting new work and wait for the
// in-flight job to finish, per spec.md §4.9's shutdown sequence.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// recurringLoop polls the queue's recurring enrollments on a short interval
// and enqueues any that are due.
func (s *Scheduler) recurringLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			due, err := s.queue.DueRecurring(ctx, time.Now())
			if err != nil {
				s.logger.Warn("scheduler-due-recurring-failed", zap.Error(err))
				continue
			}
			for _, job := range due {
				if _, err := s.queue.Enqueue(ctx, job); err != nil {
					s.logger.Warn("scheduler-enqueue-recurring-occurrence-failed", zap.Error(err))
				}
			}
		}
	}
}

// statsLoop logs queue occupancy on StatsInterval.
func (s *Scheduler) statsLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			stats, err := s.queue.Stats(ctx)
			if err != nil {
				s.logger.Warn("scheduler-stats-failed", zap.Error(err))
				continue
			}
			s.logger.Info("scheduler-stats",
				zap.Int64("waiting", stats.Waiting),
				zap.Int64("active", stats.Active),
				zap.Int64("completed", stats.Completed),
				zap.Int64("failed", stats.Failed),
				zap.Int64("delayed", stats.Delayed))
		}
	}
}
