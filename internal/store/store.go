package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ArticleStatus string

const (
	StatusFetching  ArticleStatus = "fetching"
	StatusAnalyzing ArticleStatus = "analyzing"
	StatusReady     ArticleStatus = "ready"
	StatusFailed    ArticleStatus = "failed"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrDigestNotFound  = errors.New("digest not found")
)

type Article struct {
	ID        uuid.UUID
	SourceURL string
	Title     string
	SiteName  string
	Content   string
	Status    ArticleStatus
	CreatedAt time.Time
}

// Report is the structured analysis generated for a single article.
type Report struct {
	ArticleID      uuid.UUID
	Summary        string
	Sentiment      string
	SentimentBasis string
	Risks          []string
	Opportunities  []string
	Model          string
	CreatedAt      time.Time
}

// Digest condenses the reports of a time window into a market overview.
type Digest struct {
	ID           uuid.UUID
	Paragraph    string
	Bullets      []string
	ArticleCount int
	Model        string
	CreatedAt    time.Time
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateArticle(ctx context.Context, sourceURL, title string) (Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (Article, error)
	UpdateArticleStatus(ctx context.Context, id uuid.UUID, status ArticleStatus) error
	SetArticleContent(ctx context.Context, id uuid.UUID, title, siteName, content string) error
	SaveReport(ctx context.Context, report Report) error
	GetReport(ctx context.Context, articleID uuid.UUID) (Report, error)
	ListReportsSince(ctx context.Context, since time.Time) ([]Report, error)
	SaveDigest(ctx context.Context, digest Digest) (Digest, error)
	LatestDigest(ctx context.Context) (Digest, error)
}
