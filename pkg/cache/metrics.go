package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_scanner_cache_hits_total",
		Help: "Cache hits by tier.",
	}, []string{"tier"})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_cache_misses_total",
		Help: "Cache misses that fell through every tier.",
	})

	setsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_scanner_cache_sets_total",
		Help: "Cache Set calls by tier.",
	}, []string{"tier"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_scanner_cache_errors_total",
		Help: "Cache operation errors, treated as misses per spec.",
	}, []string{"op"})
)
