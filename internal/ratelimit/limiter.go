// Package ratelimit bounds how often a client may hit write endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// fixedWindowScript increments the window counter and sets its expiry on the
// first hit, atomically.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
    return 0
end
return 1
`)

// RedisLimiter is a fixed-window counter shared by every process using the same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a shared limiter.
func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	seconds := int(l.window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	result, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.limit, seconds).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return result == 1, nil
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per key.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewLocalLimiter allows limit requests per window with a burst of limit.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*localEntry),
		rate:     rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		idleTTL:  2 * window,
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

// Cleanup drops limiters idle longer than twice the window.
func (l *LocalLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *LocalLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

// FallbackLimiter prefers the shared limiter and degrades to the local one
// when Redis is unreachable.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	logger   *zap.Logger
}

// NewFallbackLimiter composes two limiters. A nil primary always uses fallback.
func NewFallbackLimiter(primary, fallback Limiter, logger *zap.Logger) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, logger: logger}
}

// Allow implements Limiter.
func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.primary != nil {
		allowed, err := l.primary.Allow(ctx, key)
		if err == nil {
			return allowed, nil
		}
		l.logger.Warn("shared rate limiter unavailable; using local limiter", zap.Error(err))
	}
	return l.fallback.Allow(ctx, key)
}
