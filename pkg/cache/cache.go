package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"histotrek/pkg/logger"
	"histotrek/pkg/metrics"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get decodes the cached value into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// RedisCache stores JSON encoded values under prefix:key.
type RedisCache struct {
	client *redis.Client
	logger logger.Logger
	prefix string
}

func NewRedisCache(client *redis.Client, logger logger.Logger, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger.WithFields(map[string]interface{}{"component": "cache"}),
		prefix: prefix,
	}
}

func (r *RedisCache) makeKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Cache value could not be encoded", map[string]interface{}{"key": key, "error": err.Error()})
		return err
	}

	fullKey := r.makeKey(key)
	if err := r.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		r.logger.Error("Cache set failed", map[string]interface{}{"key": fullKey, "error": err.Error()})
		return err
	}

	r.logger.Debug("Cache set", map[string]interface{}{"key": fullKey, "expiration": expiration})
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := r.makeKey(key)
	data, err := r.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss()
			return ErrCacheMiss
		}
		r.logger.Error("Cache get failed", map[string]interface{}{"key": fullKey, "error": err.Error()})
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Error("Cache value could not be decoded", map[string]interface{}{"key": fullKey, "error": err.Error()})
		return err
	}

	metrics.RecordCacheHit()
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = r.makeKey(key)
	}

	if err := r.client.Del(ctx, fullKeys...).Err(); err != nil {
		r.logger.Error("Cache delete failed", map[string]interface{}{"keys": len(keys), "error": err.Error()})
		return err
	}
	return nil
}

// InvalidatePrefix removes every key starting with prefix. Keys are found
// with SCAN so a large keyspace does not block the server.
func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	pattern := r.makeKey(prefix) + "*"

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("Cache scan failed", map[string]interface{}{"pattern": pattern, "error": err.Error()})
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Cache invalidation failed", map[string]interface{}{"pattern": pattern, "error": err.Error()})
		return err
	}

	r.logger.Debug("Cache prefix invalidated", map[string]interface{}{"pattern": pattern, "deleted_keys": len(keys)})
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
