package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/storage"
	"github.com/vytor/vocabflash/internal/testutil"
)

func setup(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "progress.db"))
	t.Setenv("PROGRESS_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "ERROR")

	path := filepath.Join(dir, "vocab.csv")
	require.NoError(t, os.WriteFile(path, []byte(testutil.SampleCSV), 0o600))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestInspectSummary(t *testing.T) {
	path := setup(t)

	out := run(t, "inspect", path)
	assert.Contains(t, out, "cards: 4\n")
	assert.Regexp(t, `(?m)^Basics\s+3\s*$`, out)
	assert.Regexp(t, `(?m)^Travel\s+1\s*$`, out)
	assert.Contains(t, out, "lessons: 1, 2\n")
	assert.Contains(t, out, "animal")
}

func TestInspectCSV(t *testing.T) {
	path := setup(t)

	out := run(t, "inspect", "--csv", path)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "id,deck,lesson,article,french,english,sentence,labels,tags,pron,notes", lines[0])
	assert.Equal(t, `1,Basics,1,le,chat,cat,"Le chat dort, enfin.",noun;animal,pet,/ʃa/,`, lines[1])
}

func TestDueAndReset(t *testing.T) {
	path := setup(t)

	out := run(t, "due", path)
	assert.True(t, strings.HasPrefix(out, "4 of 4 cards due on "), out)

	st, err := storage.Open(config.Load())
	require.NoError(t, err)
	require.NoError(t, st.Progress.Save(context.Background(), path, models.ProgressBook{
		"1": {Box: 5, Due: "2999-01-01"},
	}))
	require.NoError(t, st.Close())

	out = run(t, "due", path)
	assert.True(t, strings.HasPrefix(out, "3 of 4 cards due on "), out)

	out = run(t, "reset", path)
	assert.Equal(t, "progress reset for "+path+"\n", out)

	out = run(t, "due", path)
	assert.True(t, strings.HasPrefix(out, "4 of 4 cards due on "), out)
}

func TestInspectMissingSource(t *testing.T) {
	setup(t)

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"inspect", filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, cmd.Execute())
}

func TestFlagsDoNotLeakBetweenCommands(t *testing.T) {
	path := setup(t)

	out := run(t, "inspect", "--csv", path)
	assert.True(t, strings.HasPrefix(out, "id,deck,"), out)

	out = run(t, "inspect", path)
	assert.Contains(t, out, "cards: 4\n")
	assert.NotContains(t, out, "id,deck,")
}
