package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// Locker provides advisory locks. Used to serialize sync reconciliation per
// user and to keep overlapping sweep runs mutually exclusive.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLocker implements Locker with SET NX + TTL
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a locker backed by the given Redis client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}

	logger.Debug(ctx).
		Str("key", key).
		Bool("acquired", ok).
		Dur("ttl", ttl).
		Msg("Lock acquire attempted")

	return ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release lock %q: %w", key, err)
	}
	return nil
}

func lockKey(key string) string {
	return "lock:" + key
}
