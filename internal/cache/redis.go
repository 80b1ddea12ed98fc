package cache

import (
	"context"
	"errors"
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache wraps the Redis client with common operations
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		}),
		ctx: context.Background(),
	}
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(key string) ([]byte, error) {
	val, err := c.client.Get(c.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Key doesn't exist
	}
	return val, err
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(c.ctx, key, value, ttl).Err()
}

// Delete removes keys from Redis
func (c *RedisCache) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(c.ctx, keys...).Err()
}

// GetInt64 reads a counter. A missing key reads as 0.
func (c *RedisCache) GetInt64(key string) (int64, error) {
	n, err := c.client.Get(c.ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// SetIfEqual stores value under key only while guardKey still holds want.
// It reports false, with no error, when guardKey moved first.
func (c *RedisCache) SetIfEqual(guardKey string, want int64, key string, value []byte, ttl time.Duration) (bool, error) {
	stored := false
	err := c.client.Watch(c.ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(c.ctx, guardKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != want {
			return nil
		}
		_, err = tx.TxPipelined(c.ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(c.ctx, key, value, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, guardKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// IncrAndDelete bumps every counter and removes keys in one MULTI block.
func (c *RedisCache) IncrAndDelete(counters []string, counterTTL time.Duration, keys []string) error {
	_, err := c.client.TxPipelined(c.ctx, func(pipe redis.Pipeliner) error {
		for _, k := range counters {
			pipe.Incr(c.ctx, k)
			pipe.Expire(c.ctx, k, counterTTL)
		}
		if len(keys) > 0 {
			pipe.Del(c.ctx, keys...)
		}
		return nil
	})
	return err
}

// Exists checks if a key exists
func (c *RedisCache) Exists(key string) (bool, error) {
	count, err := c.client.Exists(c.ctx, key).Result()
	return count > 0, err
}

// Ping checks if Redis is alive
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
