package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, zap.NewNop()), mr
}

func TestQueue_EnqueueThenDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 50})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	record, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id, record.ID)
	require.Equal(t, StatusActive, record.Status)
	require.Equal(t, types.PlatformPM, record.Job.PlatformA)
}

func TestQueue_DequeueTimesOutWhenEmpty(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, ok, err := q.Dequeue(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueue_EnqueueRecurringReplacesExistingEnrolment(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 50}
	require.NoError(t, q.EnqueueRecurring(ctx, job, 60*time.Second))
	require.NoError(t, q.EnqueueRecurring(ctx, job, 120*time.Second))

	later := time.Now().Add(200 * time.Second)

	jobs, err := q.DueRecurring(ctx, later)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, job, jobs[0])
}

func TestQueue_DueRecurringReschedulesForNextOccurrence(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := ScanJob{PlatformA: types.PlatformKAL, PlatformB: types.PlatformPM, Limit: 25}
	require.NoError(t, q.EnqueueRecurring(ctx, job, time.Second))

	later := time.Now().Add(2 * time.Second)
	jobs, err := q.DueRecurring(ctx, later)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// Immediately re-checking must not double-fire before the next interval.
	jobs, err = q.DueRecurring(ctx, later)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestQueue_MarkCompletedAndStats(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 50})
	require.NoError(t, err)
	_, _, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.MarkCompleted(ctx, id))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Completed)
	require.EqualValues(t, 0, stats.Waiting)
}

func TestQueue_MarkFailedAndRequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformKAL, Limit: 10})
	require.NoError(t, err)
	record, _, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.Requeue(ctx, record.ID))

	record, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, record.Attempts)

	require.NoError(t, q.MarkFailed(ctx, id, "adapter unreachable"))
	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Failed)
}

func TestQueue_StatsTracksActiveWhileDequeued(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 50})
	require.NoError(t, err)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, stats.Active)

	_, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Active)

	require.NoError(t, q.MarkCompleted(ctx, id))

	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, stats.Active)
}

func TestQueue_RequeueClearsActiveAndProgress(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, ScanJob{PlatformA: types.PlatformKAL, PlatformB: types.PlatformPM, Limit: 10})
	require.NoError(t, err)

	record, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, q.UpdateProgress(ctx, record.ID, 70))
	require.NoError(t, q.Requeue(ctx, record.ID))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, stats.Active)

	record, ok, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, record.Progress)
}

func TestQueue_UpdateProgressPersistsPercent(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 50})
	require.NoError(t, err)
	_, _, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.UpdateProgress(ctx, id, 40))

	record, err := q.getRecord(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 40, record.Progress)
}
