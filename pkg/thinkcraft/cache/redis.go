package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Deleter is the subset of a Redis client used for invalidation.
// *redis.Client and *redis.ClusterClient satisfy it.
type Deleter interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisInvalidator deletes keys from Redis.
type RedisInvalidator struct {
	client Deleter
	prefix string
}

// NewRedisInvalidator creates an invalidator. prefix is prepended to every
// key (e.g., "thinkcraft:"); it may be empty.
func NewRedisInvalidator(client Deleter, prefix string) *RedisInvalidator {
	return &RedisInvalidator{client: client, prefix: prefix}
}

// Invalidate implements Invalidator with a single DEL.
func (r *RedisInvalidator) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Compile-time check that RedisInvalidator implements Invalidator.
var _ Invalidator = (*RedisInvalidator)(nil)
