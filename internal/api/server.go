package api

import (
	"context"

	"github.com/vytor/vocabflash/internal/jobs"
	"github.com/vytor/vocabflash/internal/services"
)

// Pinger reports whether the progress store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	StudyService  services.StudyService
	JobQueue      jobs.JobQueue
	Store         Pinger
	DefaultSource string
}
