package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenState is 1 while a platform's breaker is open, 0 otherwise.
	OpenState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arb_scanner_circuit_breaker_open",
		Help: "1 if the platform's circuit breaker is open, 0 otherwise.",
	}, []string{"platform"})

	// TripsTotal counts every open transition, by platform.
	TripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_scanner_circuit_breaker_trips_total",
		Help: "Total number of times a platform's circuit breaker has tripped open.",
	}, []string{"platform"})
)
