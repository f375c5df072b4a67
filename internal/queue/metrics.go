package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_queue_enqueued_total",
		Help: "Total number of ScanJobs enqueued.",
	})

	CompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_queue_completed_total",
		Help: "Total number of ScanJobs completed successfully.",
	})

	FailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_queue_failed_total",
		Help: "Total number of ScanJobs that exhausted their retry budget.",
	})
)
