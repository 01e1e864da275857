package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shoecare/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	adminSimulationKey = "dev_admin_mode:%d"
	rateLimitKey       = "booking_rate:%d"
)

type RedisFlagRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewRedisFlagRepository creates a store whose admin simulation flags expire after ttl.
func NewRedisFlagRepository(client *redis.Client, ttl time.Duration) *RedisFlagRepository {
	return &RedisFlagRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisFlagRepository) GetAdminSimulation(ctx context.Context, userID int64) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, fmt.Sprintf(adminSimulationKey, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get admin simulation flag: %w", err)
	}
	return val == "true", nil
}

func (r *RedisFlagRepository) SetAdminSimulation(ctx context.Context, userID int64, enabled bool) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf(adminSimulationKey, userID)
	if !enabled {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear admin simulation flag: %w", err)
		}
		return nil
	}
	if err := r.client.Set(ctx, key, "true", r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set admin simulation flag: %w", err)
	}
	return nil
}

func (r *RedisFlagRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf(rateLimitKey, userID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
