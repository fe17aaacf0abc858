package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 2 * time.Second

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "healthy"})
	}
}

// readyzHandler pings the record store; an unreachable store makes the
// instance unready.
func readyzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "healthy"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		start := time.Now()
		err := store.Ping(ctx)
		check := domain.ComponentCheck{
			Name:        "store",
			Status:      "healthy",
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK
		if err != nil {
			logger.Warn("readiness: store unreachable", zap.Error(err))
			check.Status = "unhealthy"
			check.Error = err.Error()
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, domain.HealthStatus{
			Status:     check.Status,
			Components: []domain.ComponentCheck{check},
		})
	}
}
