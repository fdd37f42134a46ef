package handlers

import (
	"context"
	"net/http"

	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

// Pinger reports whether a backing store is reachable. Satisfied by
// *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the health check endpoints.
type HealthHandler struct {
	db     Pinger // nil when run history is disabled
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: log,
	}
}

// Check reports service health, including database reachability when a
// database is configured.
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "backtester-api",
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.WithError(err).Warn("Health check failed: database unreachable")
			resp["status"] = "degraded"
			resp["database"] = "unreachable"
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}

	respondJSON(w, http.StatusOK, resp)
}
