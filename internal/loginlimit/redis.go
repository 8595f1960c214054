package loginlimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces lockout counters in Redis.
const keyPrefix = "loginlimit:"

// RedisLimiter is a Limiter backed by Redis, for deployments running more
// than one server instance. Each email gets a counter key whose TTL is the
// lockout window, refreshed on every failure; expiry IS the eviction.
type RedisLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisLimiter creates a RedisLimiter with the given policy.
func NewRedisLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Check reports whether a sign-in attempt for the email may proceed.
func (l *RedisLimiter) Check(ctx context.Context, email string) (Result, error) {
	key := keyPrefix + email

	attempts, err := l.rdb.Get(ctx, key).Int()
	if err == redis.Nil {
		return Result{Allowed: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loginlimit: read counter: %w", err)
	}

	if attempts < l.maxAttempts {
		return Result{Allowed: true, Attempts: attempts}, nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("loginlimit: read ttl: %w", err)
	}
	if ttl <= 0 {
		// Key expired between the two reads.
		return Result{Allowed: true}, nil
	}

	return Result{
		Allowed:          false,
		Attempts:         attempts,
		RemainingMinutes: remainingMinutes(ttl),
	}, nil
}

// RecordFailure counts one failed attempt. The TTL is refreshed on every
// increment, so failures spaced less than a window apart keep
// accumulating toward the lockout.
func (l *RedisLimiter) RecordFailure(ctx context.Context, email string) error {
	key := keyPrefix + email

	if _, err := l.rdb.Incr(ctx, key).Result(); err != nil {
		return fmt.Errorf("loginlimit: increment counter: %w", err)
	}
	if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
		return fmt.Errorf("loginlimit: set ttl: %w", err)
	}
	return nil
}

// Reset clears the record for the email.
func (l *RedisLimiter) Reset(ctx context.Context, email string) error {
	if err := l.rdb.Del(ctx, keyPrefix+email).Err(); err != nil {
		return fmt.Errorf("loginlimit: reset counter: %w", err)
	}
	return nil
}
