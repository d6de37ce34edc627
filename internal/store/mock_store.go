package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateArticle(ctx context.Context, sourceURL, title string) (Article, error) {
	args := m.Called(ctx, sourceURL, title)
	return args.Get(0).(Article), args.Error(1)
}

func (m *MockStore) GetArticle(ctx context.Context, id uuid.UUID) (Article, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Article), args.Error(1)
}

func (m *MockStore) UpdateArticleStatus(ctx context.Context, id uuid.UUID, status ArticleStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SetArticleContent(ctx context.Context, id uuid.UUID, title, siteName, content string) error {
	args := m.Called(ctx, id, title, siteName, content)
	return args.Error(0)
}

func (m *MockStore) SaveReport(ctx context.Context, report Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockStore) GetReport(ctx context.Context, articleID uuid.UUID) (Report, error) {
	args := m.Called(ctx, articleID)
	return args.Get(0).(Report), args.Error(1)
}

func (m *MockStore) ListReportsSince(ctx context.Context, since time.Time) ([]Report, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Report), args.Error(1)
}

func (m *MockStore) SaveDigest(ctx context.Context, digest Digest) (Digest, error) {
	args := m.Called(ctx, digest)
	return args.Get(0).(Digest), args.Error(1)
}

func (m *MockStore) LatestDigest(ctx context.Context) (Digest, error) {
	args := m.Called(ctx)
	return args.Get(0).(Digest), args.Error(1)
}
