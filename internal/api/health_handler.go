package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"histotrek/pkg/cache"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/logger"
)

const checkTimeout = 2 * time.Second

// HealthSource is the part of the factory the health checks need.
type HealthSource interface {
	GetConnectionManager() *dbpool.ConnectionManager
	GetCache() *cache.Manager
}

type HealthHandler struct {
	source HealthSource
	logger logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

func NewHealthHandler(source HealthSource, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		source: source,
		logger: logger,
	}
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck reports unhealthy when no pooled connection can run a query
// within checkTimeout, or when a configured cache does not answer.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	services := map[string]interface{}{
		"database": h.checkDatabase(ctx),
	}
	if h.source.GetCache() != nil {
		services["cache"] = h.checkCache(ctx)
	}

	status := "healthy"
	for _, service := range services {
		if service.(map[string]interface{})["status"] != "healthy" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
		h.logger.Warn("Readiness check failed", map[string]interface{}{"services": services})
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) map[string]interface{} {
	cm := h.source.GetConnectionManager()

	err := cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		var one int
		return conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
	if err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	result := cm.GetStats()
	result["status"] = "healthy"
	return result
}

func (h *HealthHandler) checkCache(ctx context.Context) map[string]interface{} {
	if err := h.source.GetCache().Ping(ctx); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}
	return map[string]interface{}{"status": "healthy"}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
