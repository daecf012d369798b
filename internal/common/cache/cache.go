// Package cache provides a two-tier cache: an in-process ccache in front of Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"

	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
)

// Options controls sizes and lifetimes of both tiers.
type Options struct {
	KeyPrefix    string
	LocalMaxSize int64
	LocalTTL     time.Duration
	RemoteTTL    time.Duration
}

// TwoTier caches values of type T. Redis errors are logged and treated as misses.
type TwoTier[T any] struct {
	name   string
	opts   Options
	local  *ccache.Cache[T]
	remote redis.Cmdable
	logger logger.Logger
}

// NewTwoTier creates a cache named name. remote may be nil for a local-only cache.
func NewTwoTier[T any](name string, remote redis.Cmdable, opts Options, log logger.Logger) *TwoTier[T] {
	if opts.LocalMaxSize <= 0 {
		opts.LocalMaxSize = 1000
	}
	if opts.LocalTTL <= 0 {
		opts.LocalTTL = time.Minute
	}
	if opts.RemoteTTL <= 0 {
		opts.RemoteTTL = 5 * time.Minute
	}

	return &TwoTier[T]{
		name:   name,
		opts:   opts,
		local:  ccache.New(ccache.Configure[T]().MaxSize(opts.LocalMaxSize)),
		remote: remote,
		logger: log.WithFields(map[string]interface{}{"cache": name}),
	}
}

func (c *TwoTier[T]) remoteKey(key string) string {
	if c.opts.KeyPrefix == "" {
		return c.name + ":" + key
	}
	return c.opts.KeyPrefix + ":" + c.name + ":" + key
}

// Get looks in the local tier, then Redis. A Redis hit refills the local tier.
func (c *TwoTier[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	if item := c.local.Get(key); item != nil && !item.Expired() {
		metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheHitLocal).Inc()
		return item.Value(), true
	}

	if c.remote == nil {
		metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheMiss).Inc()
		return zero, false
	}

	raw, err := c.remote.Get(ctx, c.remoteKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Remote cache read failed", map[string]interface{}{"key": key, "error": err})
		}
		metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheMiss).Inc()
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("Remote cache entry is corrupt", map[string]interface{}{"key": key, "error": err})
		metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheMiss).Inc()
		return zero, false
	}

	c.local.Set(key, value, c.opts.LocalTTL)
	metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheHitRemote).Inc()
	return value, true
}

// Set stores value in both tiers.
func (c *TwoTier[T]) Set(ctx context.Context, key string, value T) {
	c.local.Set(key, value, c.opts.LocalTTL)

	if c.remote == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", map[string]interface{}{"key": key, "error": err})
		return
	}
	if err := c.remote.Set(ctx, c.remoteKey(key), data, c.opts.RemoteTTL).Err(); err != nil {
		c.logger.Warn("Remote cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Load errors are returned and nothing is cached.
func (c *TwoTier[T]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	c.Set(ctx, key, value)
	return value, nil
}

// Delete removes key from both tiers.
func (c *TwoTier[T]) Delete(ctx context.Context, key string) {
	c.local.Delete(key)

	if c.remote == nil {
		return
	}
	if err := c.remote.Del(ctx, c.remoteKey(key)).Err(); err != nil {
		c.logger.Warn("Remote cache delete failed", map[string]interface{}{"key": key, "error": err})
	}
}

// DeletePrefix removes every key starting with prefix from both tiers.
func (c *TwoTier[T]) DeletePrefix(ctx context.Context, prefix string) {
	c.local.DeletePrefix(prefix)

	if c.remote == nil {
		return
	}

	iter := c.remote.Scan(ctx, 0, c.remoteKey(prefix)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Remote cache scan failed", map[string]interface{}{"prefix": prefix, "error": err})
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.remote.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Remote cache delete failed", map[string]interface{}{"prefix": prefix, "error": err})
	}
}

// Stop releases the local tier's background worker.
func (c *TwoTier[T]) Stop() {
	c.local.Stop()
}
