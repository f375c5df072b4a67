package httpserver

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/mselser95/arb-scanner/internal/queue"
	"go.uber.org/zap"
)

// QueueHandler serves queue occupancy for operator dashboards.
type QueueHandler struct {
	queue  *queue.Queue
	logger *zap.Logger
}

// NewQueueHandler creates a new queue stats handler.
func NewQueueHandler(q *queue.Queue, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{queue: q, logger: logger}
}

// HandleStats serves GET /api/queue/stats: waiting/active/completed/failed/
// delayed counts, so an operator can see a job's progress advancing without
// tailing scheduler logs.
func (h *QueueHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		h.logger.Warn("queue-stats-read-failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "queue stats read failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}
