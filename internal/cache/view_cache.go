// Package cache holds the redis read-through cache used in front of
// hot lookups.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/training-events/internal/logger"
)

// ViewCache is a JSON-backed Redis cache for one value type. A nil client
// turns every call into a no-op so callers never branch on cache
// availability.
type ViewCache[T any] struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

// NewViewCache binds a cache to client. Keys are namespaced under prefix;
// a zero ttl stores keys without expiry.
func NewViewCache[T any](client *redis.Client, ttl time.Duration, prefix string, log *logger.Logger) *ViewCache[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &ViewCache[T]{client: client, ttl: ttl, prefix: prefix, log: log}
}

// Key joins parts under the cache prefix, e.g. "te:user:lg:42".
func (c *ViewCache[T]) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Get returns (nil, false) on a miss, a redis error or undecodable data.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn("cache decode failed", "key", key, "error", err)
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Failures are logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	if c == nil || c.client == nil || value == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// Delete drops key.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache delete failed", "key", key, "error", err)
	}
}
