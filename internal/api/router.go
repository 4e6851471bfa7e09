package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"histotrek/internal/api/middleware"
	"histotrek/pkg/logger"
)

// NewOpsHandler serves the operational endpoints: prometheus metrics,
// liveness and readiness.
func NewOpsHandler(source HealthSource, log logger.Logger) http.Handler {
	health := NewHealthHandler(source, log)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", health.LivenessCheck)
	mux.HandleFunc("GET /readyz", health.ReadinessCheck)

	return middleware.MetricsMiddleware(mux)
}
