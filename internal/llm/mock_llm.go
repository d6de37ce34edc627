package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Analyze(ctx context.Context, title, articleText string) (Report, error) {
	args := m.Called(ctx, title, articleText)
	return args.Get(0).(Report), args.Error(1)
}

func (m *MockClient) Digest(ctx context.Context, inputs []DigestInput) (DigestResult, error) {
	args := m.Called(ctx, inputs)
	return args.Get(0).(DigestResult), args.Error(1)
}
