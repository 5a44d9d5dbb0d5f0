package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/storage"
)

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  config.Config
	}{
		{"sqlite", config.Config{ProgressBackend: config.BackendSQLite, DBPath: filepath.Join(dir, "progress.db")}},
		{"diskv", config.Config{ProgressBackend: config.BackendDiskv, ProgressDir: filepath.Join(dir, "kv")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := storage.Open(tc.cfg)
			require.NoError(t, err)
			defer func() { require.NoError(t, st.Close()) }()

			ctx := context.Background()
			require.NoError(t, st.PingContext(ctx))
			require.NoError(t, st.Progress.Save(ctx, "src", models.ProgressBook{"a": {Box: 2, Due: "2024-03-11"}}))

			book, err := st.Progress.Load(ctx, "src")
			require.NoError(t, err)
			assert.Equal(t, models.ProgressBook{"a": {Box: 2, Due: "2024-03-11"}}, book)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := storage.Open(config.Config{ProgressBackend: "redis"})
	assert.Error(t, err)
}
