package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetReport always returns nil (cache miss)
func (c *NoOpCache) GetReport(ctx context.Context, articleID string) (*Report, error) {
	return nil, nil
}

// SetReport does nothing and always succeeds
func (c *NoOpCache) SetReport(ctx context.Context, articleID string, report *Report, ttl time.Duration) error {
	return nil
}

// InvalidateArticle does nothing and always succeeds
func (c *NoOpCache) InvalidateArticle(ctx context.Context, articleID string) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
