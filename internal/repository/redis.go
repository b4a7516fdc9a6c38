package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/config"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/redis/go-redis/v9"
)

const rateScheduleKey = "rate_schedule:current"

// ScheduleSource loads the authoritative rate schedule; in production this is
// the sqlite store.
type ScheduleSource interface {
	GetRateSchedule(ctx context.Context) (models.RateSchedule, error)
}

// NewRedisClient creates a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisRateRepository serves the rate schedule from Redis with a TTL,
// reloading from the source on miss. Reservations snapshot rates per booking,
// so a slightly stale schedule never rewrites an existing booking's price.
type RedisRateRepository struct {
	client *redis.Client
	source ScheduleSource
	ttl    time.Duration
}

func NewRedisRateRepository(client *redis.Client, source ScheduleSource, ttl time.Duration) *RedisRateRepository {
	return &RedisRateRepository{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func (r *RedisRateRepository) Current(ctx context.Context) (models.RateSchedule, error) {
	if r.client == nil {
		return models.RateSchedule{}, fmt.Errorf("redis client is nil")
	}

	val, err := r.client.Get(ctx, rateScheduleKey).Result()
	if err == nil {
		var schedule models.RateSchedule
		if err := json.Unmarshal([]byte(val), &schedule); err == nil {
			return schedule, nil
		}
		// Corrupt cache entry; fall through to reload.
	} else if err != redis.Nil {
		return models.RateSchedule{}, fmt.Errorf("failed to get rate schedule from redis: %w", err)
	}

	schedule, err := r.source.GetRateSchedule(ctx)
	if err != nil {
		return models.RateSchedule{}, err
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return models.RateSchedule{}, fmt.Errorf("failed to marshal rate schedule: %w", err)
	}
	if err := r.client.Set(ctx, rateScheduleKey, data, r.ttl).Err(); err != nil {
		return models.RateSchedule{}, fmt.Errorf("failed to cache rate schedule: %w", err)
	}

	return schedule, nil
}

// Invalidate drops the cached schedule; called after admin rate updates.
func (r *RedisRateRepository) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, rateScheduleKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate rate schedule cache: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
