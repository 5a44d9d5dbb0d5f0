package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of source.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string, bust bool) (string, error) {
	args := m.Called(ctx, url, bust)
	return args.String(0), args.Error(1)
}
