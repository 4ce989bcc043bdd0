package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
)

const (
	fieldResults = "results"
	fieldEvents  = "events"
)

// CachedStore fronts a Store with a Redis hash holding both CSV bodies,
// snappy-compressed. Redis failures degrade to the underlying store.
type CachedStore struct {
	next Store
	rdb  *redis.Client
	key  string
	ttl  time.Duration
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewCachedStore wraps next. key names the Redis hash.
func NewCachedStore(next Store, rdb *redis.Client, key string, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, rdb: rdb, key: key, ttl: ttl}
}

// Load serves from Redis when both bodies are present, otherwise loads
// from the underlying store and fills the cache.
func (c *CachedStore) Load(ctx context.Context) (*datanorm.Dataset, error) {
	vals, err := c.rdb.HMGet(ctx, c.key, fieldResults, fieldEvents).Result()
	if err != nil {
		logger.Warn("[snapshot] cache read failed", "key", c.key, "error", err.Error())
	} else if results, ok := vals[0].(string); ok {
		if events, ok := vals[1].(string); ok {
			ds, err := decodeCached(results, events)
			if err == nil {
				logger.Debug("[snapshot] cache hit", "key", c.key)
				return ds, nil
			}
			logger.Warn("[snapshot] dropping corrupt cache entry", "key", c.key, "error", err.Error())
			c.Invalidate(ctx)
		}
	}

	ds, err := c.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, ds)
	return ds, nil
}

// Save writes through to the underlying store, then replaces the cache entry.
func (c *CachedStore) Save(ctx context.Context, ds *datanorm.Dataset) error {
	if err := c.next.Save(ctx, ds); err != nil {
		return err
	}
	c.fill(ctx, ds)
	return nil
}

// Invalidate drops the cache entry.
func (c *CachedStore) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		logger.Warn("[snapshot] cache invalidate failed", "key", c.key, "error", err.Error())
	}
}

func (c *CachedStore) fill(ctx context.Context, ds *datanorm.Dataset) {
	results, events, err := encode(ds)
	if err != nil {
		logger.Warn("[snapshot] cache encode failed", "error", err.Error())
		return
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key)
		pipe.HSet(ctx, c.key,
			fieldResults, snappy.Encode(nil, results),
			fieldEvents, snappy.Encode(nil, events))
		pipe.Expire(ctx, c.key, c.ttl)
		return nil
	})
	if err != nil {
		logger.Warn("[snapshot] cache write failed", "key", c.key, "error", err.Error())
	}
}

func decodeCached(results, events string) (*datanorm.Dataset, error) {
	rawResults, err := snappy.Decode(nil, []byte(results))
	if err != nil {
		return nil, fmt.Errorf("decompress results: %w", err)
	}
	rawEvents, err := snappy.Decode(nil, []byte(events))
	if err != nil {
		return nil, fmt.Errorf("decompress events: %w", err)
	}
	return decode(rawResults, rawEvents)
}
