package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bookmarks/internal/models"
)

// appendIfUnderScript prunes, counts and conditionally appends in one round
// trip. Scores are unix microseconds.
//
// KEYS[1] window key
// ARGV[1] window start (exclusive), ARGV[2] now, ARGV[3] limit,
// ARGV[4] ttl in milliseconds, ARGV[5] member
var appendIfUnderScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count < tonumber(ARGV[3]) then
	redis.call('ZADD', KEYS[1], ARGV[2], ARGV[5])
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
	return 1
end
return 0
`)

// RedisStore keeps each window as a sorted set so several service instances
// share quota.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an already connected client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// AppendIfUnder implements Store.
func (s *RedisStore) AppendIfUnder(ctx context.Context, key string, now, windowStart time.Time, limit int, ttl time.Duration) (bool, error) {
	ttlMillis := max(ttl.Milliseconds(), 1)

	res, err := appendIfUnderScript.Run(ctx, s.client, []string{key},
		windowStart.UnixMicro(),
		now.UnixMicro(),
		limit,
		ttlMillis,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("append to window %s: %w", key, err)
	}
	return res == 1, nil
}

// History implements Store.
func (s *RedisStore) History(ctx context.Context, key string, windowStart time.Time) ([]time.Time, error) {
	entries, err := s.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(windowStart.UnixMicro(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read window %s: %w", key, err)
	}

	events := make([]time.Time, 0, len(entries))
	for _, z := range entries {
		events = append(events, time.UnixMicro(int64(z.Score)))
	}
	return events, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ConnectRedis creates a client from cfg and pings it with exponential
// backoff until cfg.ConnectTimeout elapses.
func ConnectRedis(ctx context.Context, cfg models.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateRedisConfig(cfg); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	if err := pingWithRetry(ctx, client, cfg, logger); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func validateRedisConfig(cfg models.RedisConfig) error {
	if cfg.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if cfg.ConnectTimeout <= 0 {
		return fmt.Errorf("redis connect_timeout must be > 0, got %v", cfg.ConnectTimeout)
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("redis retry_interval must be > 0, got %v", cfg.RetryInterval)
	}
	if cfg.MaxRetryWait <= 0 {
		return fmt.Errorf("redis max_retry_wait must be > 0, got %v", cfg.MaxRetryWait)
	}
	return nil
}

func pingWithRetry(ctx context.Context, client *redis.Client, cfg models.RedisConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	logger.Info("Connecting to redis", "addr", cfg.Addr, "timeout", cfg.ConnectTimeout)

	start := time.Now()
	wait := cfg.RetryInterval
	for attempt := 1; ; attempt++ {
		err := client.Ping(ctx).Err()
		if err == nil {
			if attempt > 1 {
				logger.Warn("Connected to redis after retry", "addr", cfg.Addr, "attempts", attempt, "elapsed", time.Since(start))
			} else {
				logger.Info("Connected to redis", "addr", cfg.Addr)
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Error("Redis unavailable", "addr", cfg.Addr, "attempts", attempt, "error", err)
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", cfg.Addr, attempt, err)
		case <-timer.C:
			logger.Warn("Redis connection failed, retrying", "addr", cfg.Addr, "attempt", attempt, "next_retry_in", wait, "error", err)
			wait = min(wait*2, cfg.MaxRetryWait)
		}
	}
}
