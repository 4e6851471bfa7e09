package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"histotrek/internal/config"
)

const pingTimeout = 5 * time.Second

// NewClient connects to the configured Redis and verifies it with a PING.
func NewClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
