// Package retry implements the exponential-backoff retry driver of
// spec.md §4.3, in the style of the teacher's exchange retry helper but
// generalized to an injectable retry predicate.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
)

// Config configures one retry run.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	ShouldRetry  func(error) bool
}

// DefaultConfig returns the spec's default retry envelope with the given
// retry predicate.
func DefaultConfig(shouldRetry func(error) bool) Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		ShouldRetry:  shouldRetry,
	}
}

// Operation is a unit of work the driver retries.
type Operation func(ctx context.Context) error

// Do runs op, retrying on failures that cfg.ShouldRetry accepts. Between
// attempts it sleeps the classified error's suggested delay (e.g. a 429's
// Retry-After) when one applies, falling back to min(initialDelay*2^i,
// maxDelay) otherwise. Once attempts are exhausted it returns the last
// error wrapped with the attempt count; an error the predicate rejects is
// returned as is.
func Do(ctx context.Context, cfg Config, op Operation) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.ShouldRetry == nil || !cfg.ShouldRetry(err) {
			return err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		wait := delay
		if suggested := types.SuggestedDelay(err); suggested > 0 {
			wait = suggested
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("retry: exhausted %d attempts: %w", cfg.MaxAttempts, lastErr)
}
