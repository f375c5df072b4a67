package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mselser95/arb-scanner/internal/orchestrator"
	"github.com/mselser95/arb-scanner/internal/queue"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	calls   int32
	fail    bool
	results chan queue.ScanJob
}

func (f *fakeRunner) Run(ctx context.Context, job queue.ScanJob, progress orchestrator.ProgressFunc) (*orchestrator.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.results != nil {
		f.results <- job
	}
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	return &orchestrator.Result{}, nil
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return queue.New(client, zap.NewNop())
}

func TestScheduler_EnqueuedJobIsProcessedAndMarkedCompleted(t *testing.T) {
	q := newTestQueue(t)
	runner := &fakeRunner{results: make(chan queue.ScanJob, 1)}

	cfg := Config{DequeueTimeout: 100 * time.Millisecond, StatsInterval: time.Hour, RecurringInterval: time.Hour}
	s := New(cfg, q, nil, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := q.Enqueue(ctx, queue.ScanJob{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 10})
	require.NoError(t, err)

	go s.Run(ctx)
	defer s.Stop()

	select {
	case <-runner.results:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never processed")
	}

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx)
		return err == nil && stats.Completed == 1
	}, time.Second, 10*time.Millisecond, "job %s should be marked completed", id)
}

func TestScheduler_RecurringEnrollmentFiresFirstOccurrence(t *testing.T) {
	q := newTestQueue(t)
	runner := &fakeRunner{results: make(chan queue.ScanJob, 3)}

	cfg := Config{
		RecurringPairs:    []queue.ScanJob{{PlatformA: types.PlatformPM, PlatformB: types.PlatformMAN, Limit: 5}},
		RecurringInterval: 50 * time.Millisecond,
		DequeueTimeout:    50 * time.Millisecond,
		StatsInterval:     time.Hour,
	}
	s := New(cfg, q, nil, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Run(ctx)
	defer s.Stop()

	select {
	case job := <-runner.results:
		require.Equal(t, types.PlatformPM, job.PlatformA)
	case <-time.After(3 * time.Second):
		t.Fatal("recurring job never fired")
	}
}

func TestScheduler_FailedJobIsRequeuedThenFailedAfterMaxAttempts(t *testing.T) {
	q := newTestQueue(t)
	runner := &fakeRunner{fail: true, results: make(chan queue.ScanJob, 10)}

	cfg := Config{
		DequeueTimeout:    50 * time.Millisecond,
		StatsInterval:     time.Hour,
		RecurringInterval: time.Hour,
		RetryInitialDelay: 10 * time.Millisecond,
		RetryMaxDelay:     20 * time.Millisecond,
	}
	s := New(cfg, q, nil, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := q.Enqueue(ctx, queue.ScanJob{PlatformA: types.PlatformKAL, PlatformB: types.PlatformPM, Limit: 5})
	require.NoError(t, err)

	go s.Run(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx)
		return err == nil && stats.Failed == 1
	}, 3*time.Second, 20*time.Millisecond)

	require.GreaterOrEqual(t, atomic.LoadInt32(&runner.calls), int32(3))
}

func TestBackoffDelay_CapsAtMaxDelay(t *testing.T) {
	require.Equal(t, 2*time.Second, backoffDelay(0, 2*time.Second, 20*time.Second))
	require.Equal(t, 4*time.Second, backoffDelay(1, 2*time.Second, 20*time.Second))
	require.Equal(t, 8*time.Second, backoffDelay(2, 2*time.Second, 20*time.Second))
	require.Equal(t, 20*time.Second, backoffDelay(10, 2*time.Second, 20*time.Second))
}
