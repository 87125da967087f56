package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/pkg/db"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// Healthz reports liveness and, when a database pinger is wired,
// readiness of the datasource.
func Healthz(logg *logger.Logger, pinger db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "health check database ping failed", err)
				}
				status["status"] = "degraded"
				status["database"] = "unreachable"
				responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
				return
			}
			status["database"] = "ok"
		}

		responses.WriteSuccess(w, status)
	}
}
