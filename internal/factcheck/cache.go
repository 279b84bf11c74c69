package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 24 * time.Hour

// Cache stores completed fact checks in Redis keyed by request shape.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache creates a Redis-backed fact-check cache.
func NewCache(redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewCacheWithClient(client), nil
}

// NewCacheWithClient creates a cache from an existing Redis client.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		prefix: "factcheck:",
		ttl:    defaultCacheTTL,
	}
}

func (c *Cache) key(cacheKey string) string {
	return c.prefix + cacheKey
}

// Get returns the cached fact check for a request key, if present.
func (c *Cache) Get(ctx context.Context, cacheKey string) (*FactCheck, bool, error) {
	jsonData, err := c.client.Get(ctx, c.key(cacheKey)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup fact check: %w", err)
	}

	var fc FactCheck
	if err := json.Unmarshal([]byte(jsonData), &fc); err != nil {
		return nil, false, fmt.Errorf("unmarshal fact check: %w", err)
	}
	return &fc, true, nil
}

// Put stores a fact check under the request key with the cache TTL.
func (c *Cache) Put(ctx context.Context, cacheKey string, fc *FactCheck) error {
	jsonData, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal fact check: %w", err)
	}
	if err := c.client.Set(ctx, c.key(cacheKey), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("save fact check: %w", err)
	}
	return nil
}

// Delete removes a cached fact check.
func (c *Cache) Delete(ctx context.Context, cacheKey string) error {
	if err := c.client.Del(ctx, c.key(cacheKey)).Err(); err != nil {
		return fmt.Errorf("delete fact check: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
