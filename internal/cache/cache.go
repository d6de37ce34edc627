package cache

import (
	"context"
	"time"
)

// Cache provides report result caching
type Cache interface {
	// GetReport retrieves a cached report by article id
	// Returns nil if not found
	GetReport(ctx context.Context, articleID string) (*Report, error)

	// SetReport stores a report with TTL
	SetReport(ctx context.Context, articleID string, report *Report, ttl time.Duration) error

	// InvalidateArticle removes the cached report for an article
	InvalidateArticle(ctx context.Context, articleID string) error

	// Close closes the cache connection
	Close() error
}

// Report is the cached shape of a finished analysis.
type Report struct {
	Summary        string   `json:"summary"`
	Sentiment      string   `json:"sentiment"`
	SentimentBasis string   `json:"sentiment_basis"`
	Risks          []string `json:"risks"`
	Opportunities  []string `json:"opportunities"`
	Model          string   `json:"model"`
}
