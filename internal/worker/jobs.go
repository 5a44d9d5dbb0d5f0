package worker

import (
	"context"

	"github.com/vytor/vocabflash/internal/logger"
)

// Refresher reloads a card source. It is satisfied by the study service and
// keeps this package free of a services import.
type Refresher interface {
	Refresh(ctx context.Context, src string, bust bool) error
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context, src string, bust bool) error

func (f RefreshFunc) Refresh(ctx context.Context, src string, bust bool) error {
	return f(ctx, src, bust)
}

// RefreshJob reloads one source in the background.
type RefreshJob struct {
	Refresher Refresher
	Source    string
	Bust      bool
}

func (j *RefreshJob) Name() string { return "refresh_source" }

func (j *RefreshJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("source", j.Source)
	log.Debug("refreshing in background: bust=%t", j.Bust)
	return j.Refresher.Refresh(ctx, j.Source, j.Bust)
}
