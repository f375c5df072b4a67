// Package circuitbreaker guards adapter calls with a rolling-window
// failure-rate breaker: the hysteresis/atomic-enabled shape of the
// teacher's wallet-balance monitor, repurposed from a USDC threshold to a
// per-platform request failure rate.
package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config configures one platform's breaker.
type Config struct {
	// Window is the number of recent calls the failure rate is computed over.
	Window int
	// TripRatio is the failure ratio, over Window calls, that opens the breaker.
	TripRatio float64
	// ResetRatio re-closes the breaker once the failure ratio over Window
	// recovers to at or below this value; must be <= TripRatio.
	ResetRatio float64
	// CoolDown is the minimum time the breaker stays open before a probe
	// call is allowed through.
	CoolDown time.Duration
	Platform string
	Logger   *zap.Logger
}

// DefaultConfig returns a reasonable failure-rate envelope.
func DefaultConfig(platform string, logger *zap.Logger) Config {
	return Config{
		Window:     20,
		TripRatio:  0.5,
		ResetRatio: 0.2,
		CoolDown:   30 * time.Second,
		Platform:   platform,
		Logger:     logger,
	}
}

// Breaker wraps calls to an unreliable dependency (an adapter's HTTP
// boundary) with a rolling failure-rate trip and a cool-down probe.
type Breaker struct {
	cfg Config

	open atomic.Bool

	mu         sync.Mutex
	results    []bool // true = success, ring buffer semantics via append+trim
	openedAt   time.Time
	probeInFlight atomic.Bool
}

// New builds a Breaker for one platform.
func New(cfg Config) (*Breaker, error) {
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("circuitbreaker: window must be positive")
	}
	if cfg.ResetRatio > cfg.TripRatio {
		return nil, fmt.Errorf("circuitbreaker: reset ratio must be <= trip ratio")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	b := &Breaker{
		cfg:     cfg,
		results: make([]bool, 0, cfg.Window),
	}
	OpenState.WithLabelValues(cfg.Platform).Set(0)
	return b, nil
}

// ErrOpen is returned by Do when the breaker is open and not yet ready for
// a probe call.
var ErrOpen = fmt.Errorf("circuitbreaker: open")

// Do runs fn if the breaker permits it, recording the outcome. While open,
// calls fail fast with ErrOpen until CoolDown has elapsed; after that one
// probe call at a time is let through. A failed probe restarts the
// cool-down; the breaker closes once the window's failure ratio falls to
// ResetRatio.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe := false
	if b.open.Load() {
		if !b.readyForProbe() {
			return ErrOpen
		}
		if !b.probeInFlight.CompareAndSwap(false, true) {
			return ErrOpen
		}
		defer b.probeInFlight.Store(false)
		probe = true
	}

	err := fn(ctx)
	b.record(err == nil)
	if err != nil {
		if probe && b.open.Load() {
			b.mu.Lock()
			b.openedAt = time.Now()
			b.mu.Unlock()
		}
		return err
	}
	return nil
}

func (b *Breaker) readyForProbe() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Since(b.openedAt) >= b.cfg.CoolDown
}

// record updates the rolling window and evaluates trip/reset transitions.
func (b *Breaker) record(success bool) {
	b.mu.Lock()
	b.results = append(b.results, success)
	if len(b.results) > b.cfg.Window {
		b.results = b.results[1:]
	}
	failureRatio := b.failureRatioLocked()
	full := len(b.results) >= b.cfg.Window
	b.mu.Unlock()

	if !full {
		return
	}

	wasOpen := b.open.Load()
	switch {
	case !wasOpen && failureRatio >= b.cfg.TripRatio:
		b.trip(failureRatio)
	case wasOpen && failureRatio <= b.cfg.ResetRatio:
		b.reset(failureRatio)
	}
}

func (b *Breaker) failureRatioLocked() float64 {
	if len(b.results) == 0 {
		return 0
	}
	failures := 0
	for _, ok := range b.results {
		if !ok {
			failures++
		}
	}
	return float64(failures) / float64(len(b.results))
}

func (b *Breaker) trip(ratio float64) {
	b.mu.Lock()
	b.openedAt = time.Now()
	b.mu.Unlock()

	b.open.Store(true)
	OpenState.WithLabelValues(b.cfg.Platform).Set(1)
	TripsTotal.WithLabelValues(b.cfg.Platform).Inc()
	b.cfg.Logger.Warn("circuit-breaker-open",
		zap.String("platform", b.cfg.Platform),
		zap.Float64("failure_ratio", ratio))
}

func (b *Breaker) reset(ratio float64) {
	b.open.Store(false)
	OpenState.WithLabelValues(b.cfg.Platform).Set(0)
	b.cfg.Logger.Info("circuit-breaker-closed",
		zap.String("platform", b.cfg.Platform),
		zap.Float64("failure_ratio", ratio))
}

// IsOpen reports the breaker's current state, lock-free.
func (b *Breaker) IsOpen() bool {
	return b.open.Load()
}
