package products

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"foodcourt/internal/logger"
	"foodcourt/pkg/metrics"
)

// Cache is a read-through cache over redis. Every operation degrades to a
// miss on error so redis being down never takes the catalog down with it.
type Cache struct {
	client *redis.Client
	log    logger.Logger
}

func NewCache(client *redis.Client, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		log:    log,
	}
}

// GenerateKey builds a deterministic cache key from a prefix and a set of
// query parameters. Parameters are sorted so equivalent queries share a key.
func GenerateKey(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return fmt.Sprintf("%s:%s", prefix, strings.Join(parts, ":"))
}

// Get unmarshals the cached value for key into dest. Returns false on miss
// or on any redis failure.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		c.log.WarnwCtx(ctx, "Cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		c.log.WarnwCtx(ctx, "Cache entry corrupt, treating as miss", "key", key, "error", err)
		return false
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return true
}

// Set stores value under key with the given TTL. Failures are logged and
// swallowed.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.WarnwCtx(ctx, "Cache value not serializable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.log.WarnwCtx(ctx, "Cache write failed", "key", key, "error", err)
	}
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.WarnwCtx(ctx, "Cache delete failed", "key", key, "error", err)
	}
}

// DeletePattern removes every key matching the glob pattern using SCAN, so
// invalidation never blocks redis the way KEYS would.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			c.deleteBatch(ctx, keys)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.log.WarnwCtx(ctx, "Cache pattern scan failed", "pattern", pattern, "error", err)
		return
	}
	if len(keys) > 0 {
		c.deleteBatch(ctx, keys)
	}
}

func (c *Cache) deleteBatch(ctx context.Context, keys []string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WarnwCtx(ctx, "Cache batch delete failed", "keys", len(keys), "error", err)
	}
}
