// This file implements the health check endpoint.
//
// Route:
//   - GET /api/health -> HandleHealth
package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler answers liveness probes. The database ping is bounded so a
// stalled pool cannot hang the probe.
type HealthHandler struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil, in which case
// only process liveness is reported.
func NewHealthHandler(db *sql.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// RegisterRoutes registers the health route on the provided mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
}

// HandleHealth reports service and database health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Error("health check database ping failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": "down",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
