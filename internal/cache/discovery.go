// Package cache provides a Redis-backed cache for event discovery results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// DiscoveryCache caches per-user discovery results in Redis.
type DiscoveryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDiscoveryCache connects to Redis and returns a cache with the given TTL.
func NewDiscoveryCache(redisURL string, ttl time.Duration) (*DiscoveryCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &DiscoveryCache{client: client, ttl: ttl}, nil
}

func discoveryKey(userID uuid.UUID) string {
	return "discovery:user:" + userID.String()
}

// Get loads the cached discovery result for a user into dest.
// Returns false when no entry exists.
func (c *DiscoveryCache) Get(ctx context.Context, userID uuid.UUID, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, discoveryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read discovery cache: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached discovery result: %w", err)
	}

	return true, nil
}

// Set stores the discovery result for a user with the cache TTL.
func (c *DiscoveryCache) Set(ctx context.Context, userID uuid.UUID, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode discovery result: %w", err)
	}

	if err := c.client.Set(ctx, discoveryKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write discovery cache: %w", err)
	}

	return nil
}

// Invalidate drops the cached discovery result for a user.
func (c *DiscoveryCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, discoveryKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate discovery cache: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *DiscoveryCache) Close() error {
	return c.client.Close()
}
