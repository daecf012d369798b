// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"huusy-marketplace/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection backing the remote cache tier.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a client from cfg. The pool is sized for short cache
// reads; nothing is dialled until the first command.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping is the readiness probe for the cache tier.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetClient returns the client as redis.Cmdable for the cache layer.
func (c *RedisClient) GetClient() redis.Cmdable {
	return c.Client
}
