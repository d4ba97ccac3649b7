package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/api/response"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by the store and the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health. A nil
// cache reports "disabled". Only a database failure makes the service
// unavailable; the cache is best-effort.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"database": "ok",
			"cache":    "disabled",
		}
		status := "ok"

		dbUp := true
		if err := db.Ping(ctx); err != nil {
			slog.Error("health check: database", "error", err)
			checks["database"] = "degraded"
			status = "degraded"
			dbUp = false
		}
		if cache != nil {
			checks["cache"] = "ok"
			if err := cache.Ping(ctx); err != nil {
				slog.Warn("health check: cache", "error", err)
				checks["cache"] = "degraded"
				status = "degraded"
			}
		}

		if !dbUp {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services are unavailable", checks)
			return
		}

		response.JSON(w, healthResponse{
			Status:   status,
			Version:  Version,
			Services: checks,
		})
	}
}
