package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"log/slog"

	"designforge/internal/app"
)

// Cache is the redis side of the catalog's cache-aside reads: catalog
// handlers consult it first, fall back to postgres and the design API,
// and write the result back with a TTL. A cache miss or redis error is
// never fatal; the caller just takes the slower path.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// NewCache connects to redis and verifies connectivity
func NewCache(ctx context.Context, cfg app.Config, log *slog.Logger) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb, ttl: cfg.CacheTTL, log: log}, nil
}

// GetJSON loads the cached value under key into v. Returns false on a
// miss; redis errors are logged and treated as misses.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("cache.get", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.log.Debug("cache.decode", "key", key, "err", err)
		return false
	}
	return true
}

// SetJSON stores v under key with the configured TTL, best effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("cache.set", "key", key, "err", err)
	}
}

// Close shuts down the redis connection
func (c *Cache) Close() { _ = c.rdb.Close() }

// Cache key namespacing for the catalog.
func TeamProjectsKey(teamID string) string { return "catalog:team-projects:" + teamID }

func ProjectFilesKey(projectID string) string { return "catalog:project-files:" + projectID }
