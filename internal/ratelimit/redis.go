package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type redisLimiter struct {
	client  *redis.Client
	log     zerolog.Logger
	prefix  string
	timeout time.Duration
}

// NewRedis returns a Redis-backed limiter so counters are shared across
// replicas. Construction fails when Redis cannot be reached; callers fall
// back to NewMemory.
func NewRedis(addr, password string, db int, log zerolog.Logger) (Limiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &redisLimiter{
		client:  client,
		log:     log,
		prefix:  "vitals:ratelimit:",
		timeout: 250 * time.Millisecond,
	}, nil
}

func (rl *redisLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Fail open: admission control must never take ingestion down.
		rl.log.Error().Err(err).Str("op", "incr").Msg("Rate limiter Redis error")
		return Decision{Allowed: true}
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.log.Error().Err(err).Str("op", "expire").Msg("Rate limiter Redis error")
		}
	}

	decision := Decision{Allowed: count <= int64(limit), Count: count}
	if !decision.Allowed {
		ttl, err := rl.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl <= 0 {
			ttl = window
		}
		decision.RetryAfter = ttl
	}
	return decision
}

func (rl *redisLimiter) Close() {
	if rl.client != nil {
		_ = rl.client.Close()
	}
}
