package ratelimit

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estudiolume/leads-api/pkg/logging"
)

// RedisLimiter is a fixed-window limiter backed by Redis so the budget is
// shared across instances. Counting uses INCR with an expiry set when the
// window opens.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
	logger *logging.Logger
}

// RedisConfig holds connection settings for the shared limiter store.
type RedisConfig struct {
	Addr     string
	Password string
	TLS      bool
}

// NewRedisLimiter creates a Redis-backed fixed-window limiter.
func NewRedisLimiter(cfg RedisConfig, window time.Duration, max int, logger *logging.Logger) *RedisLimiter {
	if cfg.Addr == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &RedisLimiter{
		client: redis.NewClient(opts),
		window: window,
		max:    max,
		logger: logger,
	}
}

// Allow records a request for key and reports whether it is accepted.
// Redis failures fail open: limiting is abuse mitigation, and a degraded
// store must not block legitimate submissions.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := "ratelimit:" + key

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Error("rate limit incr failed", "error", err, "key", key)
		return true
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.logger.Error("rate limit expire failed", "error", err, "key", key)
		}
	}
	return count <= int64(rl.max)
}

// Close releases the underlying Redis connection.
func (rl *RedisLimiter) Close() error {
	return rl.client.Close()
}

var _ Limiter = (*RedisLimiter)(nil)
