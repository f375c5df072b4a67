// Package ratelimit provides a per-platform token-bucket rate limiter with
// a concurrency cap and FIFO admission, matching spec.md §4.2.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Schedule once the limiter has been closed.
var ErrClosed = errors.New("ratelimit: limiter closed")

// Config describes one platform's pacing envelope.
type Config struct {
	MaxConcurrent  int
	MinInterval    time.Duration
	Capacity       int
	RefillAmount   int
	RefillInterval time.Duration
}

// Reference values from spec.md §4.2.
var (
	ConfigPM  = Config{MaxConcurrent: 5, MinInterval: 100 * time.Millisecond, Capacity: 50, RefillAmount: 50, RefillInterval: 5 * time.Second}
	ConfigMAN = Config{MaxConcurrent: 3, MinInterval: 200 * time.Millisecond, Capacity: 25, RefillAmount: 25, RefillInterval: 5 * time.Second}
	ConfigKAL = Config{MaxConcurrent: 2, MinInterval: 500 * time.Millisecond, Capacity: 10, RefillAmount: 10, RefillInterval: 5 * time.Second}
)

type ticket struct {
	ctx      context.Context
	resultCh chan struct{}
}

// Limiter enforces maxConcurrent, minInterval and a refilling reservoir for
// a single platform. Waiters are admitted strictly FIFO.
type Limiter struct {
	cfg      Config
	platform string
	logger   *zap.Logger

	requests chan *ticket
	release  chan struct{}
	stop     chan struct{}
}

// New creates and starts a Limiter for one platform.
func New(platform string, cfg Config, logger *zap.Logger) *Limiter {
	l := &Limiter{
		cfg:      cfg,
		platform: platform,
		logger:   logger,
		requests: make(chan *ticket),
		release:  make(chan struct{}),
		stop:     make(chan struct{}),
	}
	go l.run()
	return l
}

// Close stops the limiter's background goroutine. In-flight callers already
// admitted are unaffected; new Schedule calls return ErrClosed.
func (l *Limiter) Close() {
	close(l.stop)
}

// Schedule blocks until a concurrency slot and a reservoir token are both
// available and minInterval has elapsed since the last admission, then runs
// fn. It returns ctx.Err() if ctx is cancelled before admission.
func (l *Limiter) Schedule(ctx context.Context, fn func(context.Context) error) error {
	t := &ticket{ctx: ctx, resultCh: make(chan struct{})}

	select {
	case l.requests <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stop:
		return ErrClosed
	}

	admitted := false
	select {
	case <-t.resultCh:
		admitted = true
	case <-ctx.Done():
		select {
		case <-t.resultCh:
			admitted = true
		default:
		}
	}
	if !admitted {
		return ctx.Err()
	}

	defer func() {
		select {
		case l.release <- struct{}{}:
		case <-l.stop:
		}
	}()
	return fn(ctx)
}

// run is the single owner of all limiter state: the waiter queue, the
// reservoir, and the concurrency counter. No locks are needed because only
// this goroutine touches them.
func (l *Limiter) run() {
	queue := make([]*ticket, 0)
	tokens := l.cfg.Capacity
	active := 0
	var lastStart time.Time

	refill := time.NewTicker(l.cfg.RefillInterval)
	defer refill.Stop()

	for {
		for len(queue) > 0 {
			head := queue[0]
			if head.ctx.Err() != nil {
				queue = queue[1:]
				continue
			}
			wait := l.cfg.MinInterval - time.Since(lastStart)
			if active >= l.cfg.MaxConcurrent || tokens <= 0 || wait > 0 {
				break
			}
			queue = queue[1:]
			tokens--
			active++
			lastStart = time.Now()
			close(head.resultCh)
		}

		var timerCh <-chan time.Time
		if len(queue) > 0 {
			if tokens <= 0 {
				DepletedTotal.WithLabelValues(l.platform).Inc()
			}
			QueueDepth.WithLabelValues(l.platform).Set(float64(len(queue)))
			wait := l.cfg.MinInterval - time.Since(lastStart)
			if wait < 0 {
				wait = 0
			}
			timerCh = time.After(wait)
		}

		select {
		case <-l.stop:
			return
		case t := <-l.requests:
			queue = append(queue, t)
			QueuedTotal.WithLabelValues(l.platform).Inc()
		case <-l.release:
			active--
		case <-refill.C:
			tokens += l.cfg.RefillAmount
			if tokens > l.cfg.Capacity {
				tokens = l.cfg.Capacity
			}
		case <-timerCh:
		}
	}
}
