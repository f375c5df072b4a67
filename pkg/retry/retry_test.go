package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_ExhaustsExactlyMaxAttempts(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		ShouldRetry:  func(error) bool { return true },
	}

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDo_SucceedsWithoutExhausting(t *testing.T) {
	calls := 0
	cfg := DefaultConfig(func(error) bool { return true })
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDo_NonRetryableFailsFast(t *testing.T) {
	calls := 0
	cfg := DefaultConfig(func(error) bool { return false })

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return errors.New("permanent")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt for non-retryable error, got %d", calls)
	}
}

func TestDo_DelayGrowsExponentiallyUpToMax(t *testing.T) {
	cfg := Config{
		MaxAttempts:  4,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     12 * time.Millisecond,
		ShouldRetry:  func(error) bool { return true },
	}

	start := time.Now()
	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return errors.New("boom")
	})
	elapsed := time.Since(start)

	// Expected delays: 5ms, 10ms, 12ms (capped) = 27ms minimum.
	if elapsed < 27*time.Millisecond {
		t.Fatalf("expected at least 27ms of backoff, elapsed %v", elapsed)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		ShouldRetry:  func(error) bool { return true },
	}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt before cancellation, got %d", calls)
	}
}
