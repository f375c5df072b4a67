package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLimiter_EnforcesMinIntervalBackToBack(t *testing.T) {
	cfg := Config{
		MaxConcurrent:  1,
		MinInterval:    20 * time.Millisecond,
		Capacity:       100,
		RefillAmount:   100,
		RefillInterval: time.Second,
	}
	l := New("test", cfg, zap.NewNop())
	defer l.Close()

	const k = 4
	start := time.Now()
	for i := 0; i < k; i++ {
		err := l.Schedule(context.Background(), func(ctx context.Context) error {
			return nil
		})
		if err != nil {
			t.Fatalf("schedule %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	want := time.Duration(k-1) * cfg.MinInterval
	if elapsed < want {
		t.Fatalf("expected wall time >= %v, got %v", want, elapsed)
	}
}

func TestLimiter_EnforcesConcurrencyCap(t *testing.T) {
	cfg := Config{
		MaxConcurrent:  2,
		MinInterval:    0,
		Capacity:       100,
		RefillAmount:   100,
		RefillInterval: time.Second,
	}
	l := New("test", cfg, zap.NewNop())
	defer l.Close()

	var inFlight int32
	var maxObserved int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Schedule(context.Background(), func(ctx context.Context) error {
				cur := atomic.AddInt32(&inFlight, 1)
				for {
					max := atomic.LoadInt32(&maxObserved)
					if cur <= max || atomic.CompareAndSwapInt32(&maxObserved, max, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&maxObserved) > int32(cfg.MaxConcurrent) {
		t.Fatalf("observed concurrency %d exceeds cap %d", maxObserved, cfg.MaxConcurrent)
	}
}

func TestLimiter_ContextCancelledWhileWaiting(t *testing.T) {
	cfg := Config{
		MaxConcurrent:  1,
		MinInterval:    0,
		Capacity:       1,
		RefillAmount:   1,
		RefillInterval: time.Hour,
	}
	l := New("test", cfg, zap.NewNop())
	defer l.Close()

	block := make(chan struct{})
	go func() {
		_ = l.Schedule(context.Background(), func(ctx context.Context) error {
			<-block
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	err := l.Schedule(ctx, func(ctx context.Context) error {
		return nil
	})
	close(block)

	if err == nil {
		t.Fatal("expected context deadline error")
	}
}
