// Package queue implements the durable Redis-backed job queue of
// spec.md §4.8: a waiting list, a recurring enrolment sorted set keyed by
// next-run-at, and completed/failed retention bounded by count and age.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyWaiting       = "queue:waiting"
	keyJobPrefix     = "queue:job:"
	keyRecurring     = "queue:recurring"
	keyRecurringDefs = "queue:recurring:defs"
	keyCompleted     = "queue:completed"
	keyFailed        = "queue:failed"
	keyActive        = "queue:active"

	maxCompletedCount = 100
	maxCompletedAge   = 24 * time.Hour
	maxFailedCount    = 50

	defaultMaxAttempts = 3
)

// ScanJob is the durable job payload: a pair of platforms to cross-match
// plus the adapter fetch limit.
type ScanJob struct {
	PlatformA types.Platform `json:"platformA"`
	PlatformB types.Platform `json:"platformB"`
	Limit     int            `json:"limit"`
}

// RecurringKey identifies a recurring enrolment by its platform pair.
func (j ScanJob) RecurringKey() string {
	return fmt.Sprintf("%s:%s", j.PlatformA, j.PlatformB)
}

// Status is a job's lifecycle state.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is a job's durable state, stored as JSON under its Redis job key.
type Record struct {
	ID        string  `json:"id"`
	Job       ScanJob `json:"job"`
	Status    Status  `json:"status"`
	Attempts  int     `json:"attempts"`
	Progress  int     `json:"progress"` // last reported completion percent, 0-100
	CreatedAt int64   `json:"createdAt"` // epoch ms
	Reason    string  `json:"reason,omitempty"`
}

// Stats mirrors the spec's stats() call.
type Stats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
}

// Queue is the durable job queue backing the Scheduler and Worker.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// New builds a Queue over an existing Redis client.
func New(client *redis.Client, logger *zap.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

// Enqueue appends a one-shot ScanJob to the waiting list and returns its
// unique job id.
func (q *Queue) Enqueue(ctx context.Context, job ScanJob) (string, error) {
	id := uuid.NewString()
	record := Record{ID: id, Job: job, Status: StatusWaiting, CreatedAt: time.Now().UnixMilli()}

	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, keyJobPrefix+id, data, 0)
	pipe.RPush(ctx, keyWaiting, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	EnqueuedTotal.Inc()
	return id, nil
}

// recurringDef is the stored definition for a recurring enrolment.
type recurringDef struct {
	Job     ScanJob `json:"job"`
	EveryMs int64   `json:"everyMs"`
}

// EnqueueRecurring upserts the recurring enrolment for job's platform pair,
// replacing any existing enrolment for that key, per spec.md §4.8.
func (q *Queue) EnqueueRecurring(ctx context.Context, job ScanJob, every time.Duration) error {
	key := job.RecurringKey()
	def := recurringDef{Job: job, EveryMs: every.Milliseconds()}

	data, err := json.Marshal(def)
	if err != nil {
		return err
	}

	nextRun := time.Now().Add(every).UnixMilli()

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, keyRecurringDefs, key, data)
	pipe.ZAdd(ctx, keyRecurring, redis.Z{Score: float64(nextRun), Member: key})
	_, err = pipe.Exec(ctx)
	return err
}

// DueRecurring pops every recurring enrolment whose next-run-at has
// elapsed, reschedules each for its next occurrence, and returns their
// ScanJobs for immediate enqueue.
func (q *Queue) DueRecurring(ctx context.Context, now time.Time) ([]ScanJob, error) {
	nowMs := now.UnixMilli()
	keys, err := q.client.ZRangeByScore(ctx, keyRecurring, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", nowMs),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	jobs := make([]ScanJob, 0, len(keys))
	for _, key := range keys {
		raw, err := q.client.HGet(ctx, keyRecurringDefs, key).Result()
		if err != nil {
			q.logger.Warn("recurring-def-missing", zap.String("key", key), zap.Error(err))
			_ = q.client.ZRem(ctx, keyRecurring, key).Err()
			continue
		}

		var def recurringDef
		if err := json.Unmarshal([]byte(raw), &def); err != nil {
			q.logger.Warn("recurring-def-corrupt", zap.String("key", key), zap.Error(err))
			continue
		}

		jobs = append(jobs, def.Job)

		nextRun := nowMs + def.EveryMs
		if err := q.client.ZAdd(ctx, keyRecurring, redis.Z{Score: float64(nextRun), Member: key}).Err(); err != nil {
			q.logger.Warn("recurring-reschedule-failed", zap.String("key", key), zap.Error(err))
		}
	}
	return jobs, nil
}

// Dequeue blocks up to timeout for the next waiting job, marking it active.
// A nil Record (ok=false) with no error means the wait timed out or the
// popped job's record no longer exists.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Record, bool, error) {
	result, err := q.client.BLPop(ctx, timeout, keyWaiting).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(result) < 2 {
		return nil, false, fmt.Errorf("queue: unexpected BLPOP result %v", result)
	}
	id := result[1]

	record, err := q.getRecord(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}

	record.Status = StatusActive
	record.Progress = 0
	if err := q.saveRecord(ctx, record); err != nil {
		return nil, false, err
	}
	if err := q.client.ZAdd(ctx, keyActive, redis.Z{Score: float64(time.Now().UnixMilli()), Member: id}).Err(); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// UpdateProgress persists a job's completion percentage as the Orchestrator
// reports it, so Stats and the API surface can reflect in-flight progress.
func (q *Queue) UpdateProgress(ctx context.Context, id string, percent int) error {
	record, err := q.getRecord(ctx, id)
	if err != nil || record == nil {
		return err
	}
	record.Progress = percent
	return q.saveRecord(ctx, record)
}

// MarkCompleted moves a job into the completed set and trims retention.
func (q *Queue) MarkCompleted(ctx context.Context, id string) error {
	record, err := q.getRecord(ctx, id)
	if err != nil || record == nil {
		return err
	}
	record.Status = StatusCompleted
	if err := q.saveRecord(ctx, record); err != nil {
		return err
	}

	now := time.Now()
	if err := q.client.ZAdd(ctx, keyCompleted, redis.Z{Score: float64(now.UnixMilli()), Member: id}).Err(); err != nil {
		return err
	}
	if err := q.client.ZRem(ctx, keyActive, id).Err(); err != nil {
		return err
	}
	CompletedTotal.Inc()
	return q.trim(ctx, keyCompleted, maxCompletedCount, maxCompletedAge)
}

// MarkFailed moves a job into the failed set and trims retention. attempts
// below maxAttempts are expected to be re-enqueued by the caller before
// calling MarkFailed on the final attempt.
func (q *Queue) MarkFailed(ctx context.Context, id string, reason string) error {
	record, err := q.getRecord(ctx, id)
	if err != nil || record == nil {
		return err
	}
	record.Status = StatusFailed
	record.Reason = reason
	if err := q.saveRecord(ctx, record); err != nil {
		return err
	}

	now := time.Now()
	if err := q.client.ZAdd(ctx, keyFailed, redis.Z{Score: float64(now.UnixMilli()), Member: id}).Err(); err != nil {
		return err
	}
	if err := q.client.ZRem(ctx, keyActive, id).Err(); err != nil {
		return err
	}
	FailedTotal.Inc()
	return q.trim(ctx, keyFailed, maxFailedCount, 0)
}

// Requeue increments attempts and pushes the job back onto the waiting
// list, for the retry policy in spec.md §4.8.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	record, err := q.getRecord(ctx, id)
	if err != nil || record == nil {
		return err
	}
	record.Attempts++
	record.Status = StatusWaiting
	record.Progress = 0
	if err := q.saveRecord(ctx, record); err != nil {
		return err
	}
	if err := q.client.ZRem(ctx, keyActive, id).Err(); err != nil {
		return err
	}
	return q.client.RPush(ctx, keyWaiting, id).Err()
}

// MaxAttemptsReached reports whether the run that just failed used up the
// default retry budget. Attempts counts the earlier failed runs, so the
// job's defaultMaxAttempts-th failed run is its last.
func (r *Record) MaxAttemptsReached() bool {
	return r.Attempts+1 >= defaultMaxAttempts
}

// Stats reports queue occupancy across every lifecycle state.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	waiting, err := q.client.LLen(ctx, keyWaiting).Result()
	if err != nil {
		return Stats{}, err
	}
	completed, err := q.client.ZCard(ctx, keyCompleted).Result()
	if err != nil {
		return Stats{}, err
	}
	failed, err := q.client.ZCard(ctx, keyFailed).Result()
	if err != nil {
		return Stats{}, err
	}
	delayed, err := q.client.ZCard(ctx, keyRecurring).Result()
	if err != nil {
		return Stats{}, err
	}
	active, err := q.client.ZCard(ctx, keyActive).Result()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Waiting: waiting, Active: active, Completed: completed, Failed: failed, Delayed: delayed}, nil
}

// Drain removes every waiting job without processing it, for shutdown.
func (q *Queue) Drain(ctx context.Context) error {
	return q.client.Del(ctx, keyWaiting).Err()
}

// Close closes the underlying Redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) getRecord(ctx context.Context, id string) (*Record, error) {
	raw, err := q.client.Get(ctx, keyJobPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (q *Queue) saveRecord(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, keyJobPrefix+record.ID, data, 0).Err()
}

// trim enforces a count and, if maxAge > 0, an age bound on a sorted set of
// timestamped members.
func (q *Queue) trim(ctx context.Context, key string, maxCount int64, maxAge time.Duration) error {
	if maxAge > 0 {
		cutoff := time.Now().Add(-maxAge).UnixMilli()
		if err := q.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
			return err
		}
	}

	count, err := q.client.ZCard(ctx, key).Result()
	if err != nil {
		return err
	}
	if count > maxCount {
		if err := q.client.ZRemRangeByRank(ctx, key, 0, count-maxCount-1).Err(); err != nil {
			return err
		}
	}
	return nil
}
