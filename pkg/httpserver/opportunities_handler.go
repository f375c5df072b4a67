package httpserver

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"go.uber.org/zap"
)

// OpportunitiesHandler serves the latest cached scan result.
type OpportunitiesHandler struct {
	cache  cache.Cache
	logger *zap.Logger
}

// NewOpportunitiesHandler creates a new opportunities handler.
func NewOpportunitiesHandler(c cache.Cache, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{cache: c, logger: logger}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleLatest serves GET /api/opportunities: the most recent scan result
// cached under cache.OpportunitiesLatestKey, or 404 if none has run yet.
func (h *OpportunitiesHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	var result json.RawMessage
	found, err := h.cache.Get(r.Context(), cache.OpportunitiesLatestKey, &result)
	if err != nil {
		h.logger.Warn("opportunities-cache-read-failed", zap.Error(err))
		h.writeError(w, "cache read failed", http.StatusInternalServerError)
		return
	}
	if !found {
		h.writeError(w, "no scan results yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

func (h *OpportunitiesHandler) writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
