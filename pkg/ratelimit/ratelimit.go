package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter reports whether another request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// WindowCounter increments a counter that expires after ttl and returns the
// new value.
type WindowCounter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisCounter struct {
	c *redis.Client
}

func (r *redisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RedisLimiter is a fixed-window counter shared by all instances.
type RedisLimiter struct {
	counter WindowCounter
	limit   int64
	window  time.Duration
	now     func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return NewLimiter(&redisCounter{c: client}, limit, window)
}

func NewLimiter(counter WindowCounter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{counter: counter, limit: int64(limit), window: window, now: time.Now}
}

func NewRedisClient(host, port, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
	})
}

// Allow fails open: when the counter is unreachable it returns true together
// with the error.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.counter.Incr(ctx, windowKey(key, l.now(), l.window), l.window)
	if err != nil {
		return true, err
	}
	return n <= l.limit, nil
}

func windowKey(key string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, now.Unix()/int64(window.Seconds()))
}

// Noop allows everything; used when Redis is not configured.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }
