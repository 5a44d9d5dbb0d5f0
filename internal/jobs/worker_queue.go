package jobs

import (
	"github.com/vytor/vocabflash/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	refreshPool *worker.Pool
	refresher   worker.Refresher
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(refreshPool *worker.Pool, refresher worker.Refresher) JobQueue {
	return &WorkerQueue{
		refreshPool: refreshPool,
		refresher:   refresher,
	}
}

func (q *WorkerQueue) EnqueueRefresh(source string, bust bool) error {
	return q.refreshPool.Submit(&worker.RefreshJob{
		Refresher: q.refresher,
		Source:    source,
		Bust:      bust,
	})
}
