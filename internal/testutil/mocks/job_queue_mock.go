package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueRefresh(source string, bust bool) error {
	args := m.Called(source, bust)
	return args.Error(0)
}
