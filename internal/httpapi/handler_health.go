package httpapi

import (
	"context"
	"net/http"
	"time"

	"pbx-api/internal/db"
)

const healthTimeout = 2 * time.Second

func HealthHandler(pool db.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				requestLogger(r).Warn("health check failed", "error", err)
				http.Error(w, "db not ok", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
