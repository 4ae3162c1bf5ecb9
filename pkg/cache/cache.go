package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	TTLProfile = 5 * time.Minute
	TTLDefault = 5 * time.Minute
)

// Key prefixes
const (
	PrefixProfile = "chat:profile:"
)

// ErrMiss is returned when a key is absent or Redis is not configured
var ErrMiss = errors.New("cache miss")

// Service is a JSON value cache backed by Redis
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Profile headers shown in chat lists and conversation headers
	GetProfile(ctx context.Context, userID string, dest interface{}) error
	SetProfile(ctx context.Context, userID string, value interface{}) error
	InvalidateProfile(ctx context.Context, userID string) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// NewService creates a cache service. A nil client yields a cache that always misses.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) GetProfile(ctx context.Context, userID string, dest interface{}) error {
	return c.Get(ctx, PrefixProfile+userID, dest)
}

func (c *redisCache) SetProfile(ctx context.Context, userID string, value interface{}) error {
	return c.Set(ctx, PrefixProfile+userID, value, TTLProfile)
}

func (c *redisCache) InvalidateProfile(ctx context.Context, userID string) error {
	return c.Delete(ctx, PrefixProfile+userID)
}
