// Package limiter counts failed attempts per key in Redis within a fixed
// window. Counters live in Redis so every process sees the same budget.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "eventpass:attempts:"

type Limiter struct {
	redis       redis.Cmdable
	maxAttempts int64
	window      time.Duration
}

func New(client redis.Cmdable, maxAttempts int64, window time.Duration) *Limiter {
	return &Limiter{redis: client, maxAttempts: maxAttempts, window: window}
}

// Allow consumes one attempt for key and reports whether it is within budget.
// The window starts with the first attempt. INCR and EXPIRE NX go out in one
// MULTI, and every call re-arms a missing TTL, so a counter never outlives
// its window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count attempts: %w", err)
	}
	return incr.Val() <= l.maxAttempts, nil
}

// Reset clears the counter after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}
