package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_alerts_sent_total",
		Help: "Total number of webhook alerts successfully posted.",
	})

	SuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_alerts_suppressed_total",
		Help: "Total number of alerts suppressed by the cooldown window.",
	})

	FailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_alerts_failed_total",
		Help: "Total number of webhook POSTs that failed.",
	})
)
