package repository

import (
	"context"
	"time"

	"github.com/vytor/vocabflash/internal/models"
)

// ProgressRepository persists Leitner progress, one namespace per card source.
//
// Implementations are best-effort: individually corrupt records are skipped
// on Load rather than failing the whole read.
type ProgressRepository interface {
	Load(ctx context.Context, sourceKey string) (models.ProgressBook, error)
	Save(ctx context.Context, sourceKey string, book models.ProgressBook) error
	Reset(ctx context.Context, sourceKey string) error
	MarkRefreshed(ctx context.Context, sourceKey string, at time.Time) error
	LastRefreshed(ctx context.Context, sourceKey string) (*time.Time, error)
}
