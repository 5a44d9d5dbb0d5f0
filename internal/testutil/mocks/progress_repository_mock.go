package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/vocabflash/internal/models"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Load(ctx context.Context, sourceKey string) (models.ProgressBook, error) {
	args := m.Called(ctx, sourceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so the caller can mutate it freely
	return args.Get(0).(models.ProgressBook).Clone(), args.Error(1)
}

func (m *MockProgressRepository) Save(ctx context.Context, sourceKey string, book models.ProgressBook) error {
	args := m.Called(ctx, sourceKey, book.Clone())
	return args.Error(0)
}

func (m *MockProgressRepository) Reset(ctx context.Context, sourceKey string) error {
	args := m.Called(ctx, sourceKey)
	return args.Error(0)
}

func (m *MockProgressRepository) MarkRefreshed(ctx context.Context, sourceKey string, at time.Time) error {
	args := m.Called(ctx, sourceKey, at)
	return args.Error(0)
}

func (m *MockProgressRepository) LastRefreshed(ctx context.Context, sourceKey string) (*time.Time, error) {
	args := m.Called(ctx, sourceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}
