package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/pkg/circuitbreaker"
	"histotrek/pkg/logger"
)

type entry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, logger.Nop(), "histotrek"), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got entry
	assert.ErrorIs(t, c.Get(ctx, "place:id:1", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "place:id:1", entry{ID: 1, Name: "Petra"}, time.Minute))
	assert.True(t, mr.Exists("histotrek:place:id:1"))

	require.NoError(t, c.Get(ctx, "place:id:1", &got))
	assert.Equal(t, entry{ID: 1, Name: "Petra"}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "place:id:1", &got), ErrCacheMiss)
}

func TestRedisCache_InvalidatePrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "place:id:1", entry{ID: 1}, 0))
	require.NoError(t, c.Set(ctx, "place:list", []entry{{ID: 1}}, 0))
	require.NoError(t, c.Set(ctx, "other:1", entry{ID: 2}, 0))

	require.NoError(t, c.InvalidatePrefix(ctx, PlacePrefix))

	assert.False(t, mr.Exists("histotrek:place:id:1"))
	assert.False(t, mr.Exists("histotrek:place:list"))
	assert.True(t, mr.Exists("histotrek:other:1"))

	require.NoError(t, c.InvalidatePrefix(ctx, PlacePrefix), "nothing left to delete")
}

func TestReadThrough(t *testing.T) {
	c, _ := newTestCache(t)
	m := NewManager(c, logger.Nop())
	ctx := context.Background()

	calls := 0
	fetch := func() ([]entry, error) {
		calls++
		return []entry{{ID: 1, Name: "Petra"}}, nil
	}

	first, err := ReadThrough(ctx, m, PlaceListKey, time.Minute, fetch)
	require.NoError(t, err)
	second, err := ReadThrough(ctx, m, PlaceListKey, time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	m.Invalidate(ctx, PlacePrefix)
	_, err = ReadThrough(ctx, m, PlaceListKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestReadThrough_SourceErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	m := NewManager(c, logger.Nop())
	boom := errors.New("boom")

	_, err := ReadThrough(context.Background(), m, PlaceCacheKey(3), time.Minute, func() (*entry, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("histotrek:place:id:3"))
}

func TestReadThrough_FallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })
	m := NewManager(NewRedisCache(client, logger.Nop(), "histotrek"), logger.Nop())

	got, err := ReadThrough(context.Background(), m, PlaceCacheKey(1), time.Minute, func() (*entry, error) {
		return &entry{ID: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestReadThrough_BreakerSkipsDeadRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })
	m := NewManager(NewRedisCache(client, logger.Nop(), "histotrek"), logger.Nop())

	fetches := 0
	fetch := func() (*entry, error) {
		fetches++
		return &entry{ID: 7}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := ReadThrough(context.Background(), m, PlaceCacheKey(7), time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
	}

	assert.Equal(t, 3, fetches)
	assert.Equal(t, circuitbreaker.StateOpen, m.BreakerState())
	assert.ErrorIs(t, m.WarmUp(context.Background(), map[string]interface{}{"k": 1}, time.Minute), circuitbreaker.ErrOpen)
}

func TestReadThrough_MissesDoNotTripBreaker(t *testing.T) {
	c, _ := newTestCache(t)
	m := NewManager(c, logger.Nop())

	for i := int64(1); i <= 5; i++ {
		_, err := ReadThrough(context.Background(), m, PlaceCacheKey(i), time.Minute, func() (*entry, error) {
			return &entry{ID: i}, nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, circuitbreaker.StateClosed, m.BreakerState())
}

func TestManager_WarmUp(t *testing.T) {
	c, mr := newTestCache(t)
	m := NewManager(c, logger.Nop())

	require.NoError(t, m.WarmUp(context.Background(), map[string]interface{}{
		PlaceCacheKey(1): entry{ID: 1},
		PlaceListKey:     []entry{{ID: 1}},
	}, time.Minute))

	assert.True(t, mr.Exists("histotrek:place:id:1"))
	assert.True(t, mr.Exists("histotrek:place:list"))
}

func TestPlaceSearchCacheKey(t *testing.T) {
	assert.Equal(t, "place:search:rome|Italy|", PlaceSearchCacheKey("  Rome ", "Italy", ""))
}
