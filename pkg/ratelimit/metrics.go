package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueuedTotal counts admissions requested per platform ("queued" hook).
	QueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_ratelimit_queued_total",
		Help: "Total number of calls that entered a platform's rate limiter queue",
	}, []string{"platform"})

	// DepletedTotal counts reservoir-exhausted ticks per platform ("depleted" hook).
	DepletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_ratelimit_depleted_total",
		Help: "Total number of scheduling loops observed with an empty reservoir",
	}, []string{"platform"})

	// QueueDepth tracks the current number of waiters per platform.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arb_ratelimit_queue_depth",
		Help: "Current number of callers waiting for a rate limiter slot",
	}, []string{"platform"})
)
