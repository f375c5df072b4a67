// Package adapters implements the per-platform Adapter of spec.md §4.4:
// a rate-limited, retry-wrapped, schema-validating HTTP fetch that
// normalizes PM/KAL/MAN payloads into types.StandardMarket.
package adapters

import (
	"context"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
)

// Adapter is the capability set every platform implements: fetch a page of
// markets, or fetch one by id (nil, nil on a 404).
type Adapter interface {
	Platform() types.Platform
	FetchMarkets(ctx context.Context, limit int) ([]*types.StandardMarket, error)
	FetchMarketByID(ctx context.Context, id string) (*types.StandardMarket, error)
}

// Config is the fetching configuration enumerated in spec.md §6, plus the
// per-platform circuit breaker envelope of SPEC_FULL.md §4.12.
type Config struct {
	BasePerPlatformURL map[types.Platform]string
	TimeoutMs          int
	DefaultLimit       int
	MaxLimit           int

	CircuitBreakerWindow     int
	CircuitBreakerTripRatio  float64
	CircuitBreakerResetRatio float64
	CircuitBreakerCoolDown   time.Duration
}
