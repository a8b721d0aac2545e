package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"example.com/mealplan/internal/domain"
	"example.com/mealplan/internal/logger"
	"example.com/mealplan/internal/nutrition"
)

const allFoodsKey = "foods:all"

// Cache is a byte-oriented key/value cache with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache implements Cache on Redis, namespacing keys with a prefix.
type RedisCache struct {
	rdb    goredis.Cmdable
	prefix string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb goredis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

// NewRedisClient dials addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Store is the catalog backend behind a CachedCatalog.
type Store interface {
	domain.FoodCatalog
	FoodWriter
}

// CachedCatalog serves AllFoods through a read-through cache. Cache failures fall back to the store.
type CachedCatalog struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedCatalog decorates store with cache.
func NewCachedCatalog(store Store, cache Cache, ttl time.Duration, log *logger.Logger) *CachedCatalog {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedCatalog{store: store, cache: cache, ttl: ttl, logger: log.With("component", "catalog_cache")}
}

func (c *CachedCatalog) AllFoods(ctx context.Context) ([]nutrition.FoodItem, error) {
	raw, ok, err := c.cache.Get(ctx, allFoodsKey)
	switch {
	case err != nil:
		recordCacheLookup(resultError)
		c.logger.Warn("catalog cache read failed", "error", err)
	case ok:
		var foods []nutrition.FoodItem
		if err := json.Unmarshal(raw, &foods); err == nil {
			recordCacheLookup(resultHit)
			return foods, nil
		}
		recordCacheLookup(resultError)
		c.logger.Warn("catalog cache entry corrupt", "key", allFoodsKey)
	default:
		recordCacheLookup(resultMiss)
	}

	foods, err := c.store.AllFoods(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(foods); err == nil {
		if err := c.cache.Set(ctx, allFoodsKey, raw, c.ttl); err != nil {
			c.logger.Warn("catalog cache write failed", "error", err)
		}
	}
	return foods, nil
}

// ListFoods is not cached; pages are cheap and keyed by arbitrary cursors.
func (c *CachedCatalog) ListFoods(ctx context.Context, query string, cursor *domain.Cursor, limit int) ([]nutrition.FoodItem, *domain.Cursor, error) {
	return c.store.ListFoods(ctx, query, cursor, limit)
}

// UpsertFoods writes through to the store and drops the cached catalog.
func (c *CachedCatalog) UpsertFoods(ctx context.Context, foods []nutrition.FoodItem) error {
	if err := c.store.UpsertFoods(ctx, foods); err != nil {
		return err
	}
	return c.Invalidate(ctx)
}

// Invalidate drops the cached catalog.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, allFoodsKey)
}
