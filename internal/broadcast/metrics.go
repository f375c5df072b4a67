package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveClients tracks the number of dashboard clients currently connected
	// to the broadcast hub.
	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_scanner_broadcast_active_clients",
		Help: "Number of dashboard WebSocket clients currently connected.",
	})

	// MessagesSentTotal counts scan-result messages delivered to clients.
	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scanner_broadcast_messages_sent_total",
		Help: "Total number of broadcast messages delivered to dashboard clients.",
	})

	// MessagesDroppedTotal counts messages dropped because a client's send
	// buffer or the hub's broadcast buffer was full, labelled by reason.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_scanner_broadcast_messages_dropped_total",
			Help: "Total number of broadcast messages dropped due to a full client or hub buffer.",
		},
		[]string{"reason"},
	)
)
