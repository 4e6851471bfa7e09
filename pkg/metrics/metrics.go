package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "histotrek_db_pool_size",
			Help: "Number of pinned connections in the pool",
		},
	)

	PoolInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "histotrek_db_pool_in_use",
			Help: "Connections currently checked out of the pool",
		},
	)

	PoolWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "histotrek_db_pool_wait_seconds",
			Help:    "Time spent waiting for a pooled connection",
			Buckets: prometheus.DefBuckets,
		},
	)

	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histotrek_database_operations_total",
			Help: "Database operations by entity, operation and outcome",
		},
		[]string{"operation", "entity", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "histotrek_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histotrek_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "histotrek_http_requests_total",
			Help: "Requests served by the operations endpoint",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "histotrek_http_request_duration_seconds",
			Help:    "Operations endpoint request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "histotrek_cache_hits_total",
			Help: "Cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "histotrek_cache_misses_total",
			Help: "Cache misses",
		},
	)
)

func RecordDatabaseOperation(operation, entity string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DatabaseOperationsTotal.WithLabelValues(operation, entity, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

func UpdatePoolStats(size, inUse int) {
	PoolSize.Set(float64(size))
	PoolInUse.Set(float64(inUse))
}

func RecordPoolWait(duration time.Duration) {
	PoolWaitDuration.Observe(duration.Seconds())
}

func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
