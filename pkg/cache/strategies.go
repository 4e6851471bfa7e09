package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"histotrek/pkg/circuitbreaker"
	"histotrek/pkg/logger"
)

const (
	PlacePrefix    = "place"
	PlaceByIDKey   = "place:id:%d"
	PlaceListKey   = "place:list"
	PlaceSearchKey = "place:search:%s|%s|%s"
)

const (
	DefaultExpiration = 10 * time.Minute

	breakerMaxFailures = 3
	breakerTimeout     = 30 * time.Second
)

// Manager implements read-through caching on top of a Cache. A broken cache
// never fails a read; the source is consulted instead. Reads and writes go
// through a circuit breaker so a dead redis is skipped until it recovers.
type Manager struct {
	cache   Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  logger.Logger
}

func NewManager(cache Cache, logger logger.Logger) *Manager {
	m := &Manager{
		cache:  cache,
		logger: logger.WithFields(map[string]interface{}{"component": "cache_manager"}),
	}
	m.breaker = circuitbreaker.New(circuitbreaker.Settings{
		Name:        "redis",
		MaxFailures: breakerMaxFailures,
		Timeout:     breakerTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			m.logger.Warn("Cache circuit breaker changed state", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return m
}

// BreakerState reports whether cache calls are currently being skipped.
func (m *Manager) BreakerState() circuitbreaker.State {
	return m.breaker.State()
}

func (m *Manager) get(ctx context.Context, key string, dest interface{}) error {
	return m.breaker.Execute(func() error { return m.cache.Get(ctx, key, dest) })
}

func (m *Manager) set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.breaker.Execute(func() error { return m.cache.Set(ctx, key, value, expiration) })
}

// ReadThrough returns the cached value for key, or calls fetch on a miss and
// stores what it returns.
func ReadThrough[T any](ctx context.Context, m *Manager, key string, expiration time.Duration, fetch func() (T, error)) (T, error) {
	var cached T
	err := m.get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, circuitbreaker.ErrOpen) {
		m.logger.Warn("Cache unavailable, reading from source", map[string]interface{}{"key": key, "error": err.Error()})
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}

	if err := m.set(ctx, key, value, expiration); err != nil && !errors.Is(err, circuitbreaker.ErrOpen) {
		m.logger.Warn("Fetched value could not be cached", map[string]interface{}{"key": key, "error": err.Error()})
	}

	return value, nil
}

// Invalidate bypasses the breaker; a stale entry is worse than a slow call.
func (m *Manager) Invalidate(ctx context.Context, prefix string) {
	if err := m.cache.InvalidatePrefix(ctx, prefix); err != nil {
		m.logger.Error("Cache invalidation failed", map[string]interface{}{"prefix": prefix, "error": err.Error()})
	}
}

// WarmUp stores every item, stopping at the first failure.
func (m *Manager) WarmUp(ctx context.Context, items map[string]interface{}, expiration time.Duration) error {
	start := time.Now()
	for key, value := range items {
		if err := m.set(ctx, key, value, expiration); err != nil {
			m.logger.Error("Cache warm-up failed", map[string]interface{}{"key": key, "error": err.Error()})
			return err
		}
	}

	m.logger.Info("Cache warmed up", map[string]interface{}{"keys": len(items), "duration": time.Since(start)})
	return nil
}

func PlaceCacheKey(id int64) string {
	return fmt.Sprintf(PlaceByIDKey, id)
}

func PlaceSearchCacheKey(query, country, era string) string {
	return fmt.Sprintf(PlaceSearchKey, strings.ToLower(strings.TrimSpace(query)), country, era)
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.cache.Ping(ctx)
}
