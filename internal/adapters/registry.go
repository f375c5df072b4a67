package adapters

import (
	"fmt"
	"time"

	"github.com/mselser95/arb-scanner/internal/circuitbreaker"
	"github.com/mselser95/arb-scanner/pkg/ratelimit"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// rateLimitConfigs mirrors the reference reservoirs of spec.md §4.2.
var rateLimitConfigs = map[types.Platform]ratelimit.Config{
	types.PlatformPM:  ratelimit.ConfigPM,
	types.PlatformMAN: ratelimit.ConfigMAN,
	types.PlatformKAL: ratelimit.ConfigKAL,
}

// NewRegistry builds the closed set of platform adapters, each bound to its
// own Rate Limiter instance.
func NewRegistry(cfg Config, logger *zap.Logger) (map[types.Platform]Adapter, error) {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond

	registry := make(map[types.Platform]Adapter, 3)
	for _, platform := range []types.Platform{types.PlatformPM, types.PlatformKAL, types.PlatformMAN} {
		baseURL, ok := cfg.BasePerPlatformURL[platform]
		if !ok || baseURL == "" {
			return nil, types.NewConfigMissing(platform, fmt.Errorf("missing base URL for platform %s", platform))
		}

		limiter := ratelimit.New(string(platform), rateLimitConfigs[platform], logger)

		var adapter Adapter
		switch platform {
		case types.PlatformPM:
			adapter = NewPM(baseURL, timeout, limiter, logger)
		case types.PlatformKAL:
			adapter = NewKAL(baseURL, timeout, limiter, logger)
		case types.PlatformMAN:
			adapter = NewMAN(baseURL, timeout, limiter, logger)
		}

		if cfg.CircuitBreakerWindow > 0 {
			if err := overrideBreaker(adapter, platform, cfg, logger); err != nil {
				return nil, fmt.Errorf("configure circuit breaker for %s: %w", platform, err)
			}
		}

		registry[platform] = adapter
	}
	return registry, nil
}

// overrideBreaker replaces an adapter's default circuit breaker envelope
// with the configured one. Adapters share this package, so their unexported
// *httpClient field is reachable directly rather than through a setter.
func overrideBreaker(adapter Adapter, platform types.Platform, cfg Config, logger *zap.Logger) error {
	breaker, err := circuitbreaker.New(circuitbreaker.Config{
		Window:     cfg.CircuitBreakerWindow,
		TripRatio:  cfg.CircuitBreakerTripRatio,
		ResetRatio: cfg.CircuitBreakerResetRatio,
		CoolDown:   cfg.CircuitBreakerCoolDown,
		Platform:   string(platform),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	switch a := adapter.(type) {
	case *PM:
		a.http.breaker = breaker
	case *KAL:
		a.http.breaker = breaker
	case *MAN:
		a.http.breaker = breaker
	}
	return nil
}
