// Package storage opens the progress backend selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/repository/diskv"
	"github.com/vytor/vocabflash/internal/repository/sqlite"
)

// Store bundles the progress repository with the resources behind it.
type Store struct {
	Progress repository.ProgressRepository
	database *db.DB
}

// Open creates the backend named by cfg.ProgressBackend.
func Open(cfg config.Config) (*Store, error) {
	log := logger.Default().WithPrefix("storage")

	switch cfg.ProgressBackend {
	case config.BackendSQLite:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Info("progress backend: sqlite (%s)", cfg.DBPath)
		return &Store{Progress: sqlite.NewProgressRepository(database.DB), database: database}, nil
	case config.BackendDiskv:
		log.Info("progress backend: diskv (%s)", cfg.ProgressDir)
		return &Store{Progress: diskv.NewProgressRepository(cfg.ProgressDir)}, nil
	}
	return nil, fmt.Errorf("unknown progress backend %q", cfg.ProgressBackend)
}

// PingContext checks the database when there is one.
func (s *Store) PingContext(ctx context.Context) error {
	if s.database == nil {
		return nil
	}
	return s.database.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}
