package scheduler

import (
	"context"
	"time"

	"github.com/mselser95/arb-scanner/internal/queue"
	"go.uber.org/zap"
)

// workerLoop is the single-concurrency worker of spec.md §4.8: it dequeues
// at most one ScanJob at a time and delegates to the Orchestrator, retrying
// failures with exponential backoff up to the queue's default attempt
// budget before moving the job to the failed set.
func (s *Scheduler) workerLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		record, ok, err := s.queue.Dequeue(ctx, s.cfg.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("worker-dequeue-failed", zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		s.processJob(ctx, record)
	}
}

func (s *Scheduler) processJob(ctx context.Context, record *queue.Record) {
	progress := func(pct int) {
		if err := s.queue.UpdateProgress(ctx, record.ID, pct); err != nil {
			s.logger.Warn("worker-update-progress-failed", zap.String("jobId", record.ID), zap.Int("percent", pct), zap.Error(err))
		}
	}

	_, err := s.runner.Run(ctx, record.Job, progress)
	if err == nil {
		if err := s.queue.MarkCompleted(ctx, record.ID); err != nil {
			s.logger.Warn("worker-mark-completed-failed", zap.String("jobId", record.ID), zap.Error(err))
		}
		return
	}

	s.logger.Warn("worker-job-failed",
		zap.String("jobId", record.ID),
		zap.Int("attempts", record.Attempts),
		zap.Error(err))

	if record.MaxAttemptsReached() {
		if markErr := s.queue.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
			s.logger.Warn("worker-mark-failed-failed", zap.String("jobId", record.ID), zap.Error(markErr))
		}
		return
	}

	delay := backoffDelay(record.Attempts, s.cfg.RetryInitialDelay, s.cfg.RetryMaxDelay)
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := s.queue.Requeue(ctx, record.ID); err != nil {
		s.logger.Warn("worker-requeue-failed", zap.String("jobId", record.ID), zap.Error(err))
	}
}

// backoffDelay computes min(initial*2^attempt, max), mirroring the Retry
// Driver's formula (pkg/retry) at job granularity rather than call
// granularity.
func backoffDelay(attempt int, initial, max time.Duration) time.Duration {
	delay := initial
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > max {
			return max
		}
	}
	return delay
}
