// Package visits counts page visits for the demo server.
//
// The count is the only state the demo keeps; it exists so that /visits
// returns a different body, and therefore a different entity-tag, on every
// request.
package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the backing store could not be reached.
var ErrUnavailable = errors.New("visit counter unavailable")

// Counter increments and returns a visit count.
type Counter interface {
	Incr(ctx context.Context) (int64, error)
}

// RedisCounter keeps the count in a Redis key.
type RedisCounter struct {
	redis *redis.Client
	key   string
}

// NewRedisCounter creates a counter stored under key.
func NewRedisCounter(redisClient *redis.Client, key string) *RedisCounter {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisCounter{
		redis: redisClient,
		key:   key,
	}
}

// Incr increments the key with INCR and returns the new value.
func (c *RedisCounter) Incr(ctx context.Context) (int64, error) {
	n, err := c.redis.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: redis incr %s: %v", ErrUnavailable, c.key, err)
	}
	return n, nil
}

// MemoryCounter keeps the count in process memory.
type MemoryCounter struct {
	n atomic.Int64
}

// NewMemoryCounter creates a counter starting at zero.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{}
}

// Incr increments the count. It never fails.
func (c *MemoryCounter) Incr(ctx context.Context) (int64, error) {
	return c.n.Add(1), nil
}

// NewRedisClient builds a client from a redis:// URL or a bare host:port.
func NewRedisClient(url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		return redis.NewClient(&redis.Options{Addr: url}), nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
