package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Key prefix for cached reports
	reportKeyPrefix = "report:"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

// GetReport retrieves a cached report by article id
func (c *RedisCache) GetReport(ctx context.Context, articleID string) (*Report, error) {
	data, err := c.client.Get(ctx, reportKeyPrefix+articleID).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SetReport stores a report with TTL
func (c *RedisCache) SetReport(ctx context.Context, articleID string, report *Report, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKeyPrefix+articleID, data, ttl).Err()
}

// InvalidateArticle removes the cached report for an article
func (c *RedisCache) InvalidateArticle(ctx context.Context, articleID string) error {
	return c.client.Del(ctx, reportKeyPrefix+articleID).Err()
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
