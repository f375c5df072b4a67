package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesFoundTotal tracks profitable opportunities found, by pair.
	OpportunitiesFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_scanner_opportunities_found_total",
		Help: "Total number of profitable arbitrage opportunities found.",
	}, []string{"platform_a", "platform_b"})

	// EvaluationsTotal tracks every strategy evaluated, profitable or not.
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_arbitrage_evaluations_total",
		Help: "Total number of buy-direction strategies evaluated.",
	})

	// BestROI tracks the highest ROI observed in the most recent scan.
	BestROI = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_scanner_arbitrage_best_roi_percent",
		Help: "Highest ROI percent observed in the most recent scan.",
	})
)
