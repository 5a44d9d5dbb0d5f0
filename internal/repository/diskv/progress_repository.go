package diskv

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
)

const (
	progressKey  = "progress"
	refreshedKey = "refreshed"
)

type progressRepository struct {
	d  *diskv.Diskv
	mu sync.Mutex
}

// NewProgressRepository creates a ProgressRepository storing one JSON payload
// per source under basePath.
func NewProgressRepository(basePath string) repository.ProgressRepository {
	return &progressRepository{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

func (r *progressRepository) Load(ctx context.Context, sourceKey string) (models.ProgressBook, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("loading progress: source=%s", sourceKey)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(log, sourceKey), nil
}

func (r *progressRepository) Save(ctx context.Context, sourceKey string, book models.ProgressBook) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving progress: source=%s, entries=%d", sourceKey, len(book))
	if len(book) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := r.read(log, sourceKey)
	for id, e := range book {
		e.Box = flashcard.ClampBox(e.Box)
		merged[id] = e
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	if err := r.d.Write(toKey(sourceKey, progressKey), b); err != nil {
		log.Error("failed to write progress: %v", err)
		return err
	}
	return nil
}

func (r *progressRepository) Reset(ctx context.Context, sourceKey string) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Info("resetting progress: source=%s", sourceKey)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := toKey(sourceKey, progressKey)
	if !r.d.Has(key) {
		return nil
	}
	if err := r.d.Erase(key); err != nil {
		log.Error("failed to reset progress: %v", err)
		return err
	}
	return nil
}

func (r *progressRepository) MarkRefreshed(ctx context.Context, sourceKey string, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("marking source refreshed: source=%s", sourceKey)

	b, err := at.UTC().MarshalText()
	if err != nil {
		return err
	}
	if err := r.d.Write(toKey(sourceKey, refreshedKey), b); err != nil {
		log.Error("failed to mark source refreshed: %v", err)
		return err
	}
	return nil
}

func (r *progressRepository) LastRefreshed(ctx context.Context, sourceKey string) (*time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	key := toKey(sourceKey, refreshedKey)
	if !r.d.Has(key) {
		return nil, nil
	}
	b, err := r.d.Read(key)
	if err != nil {
		log.Error("failed to read last refresh: %v", err)
		return nil, err
	}
	var at time.Time
	if err := at.UnmarshalText(b); err != nil {
		log.Warn("corrupt refresh timestamp for source=%s: %v", sourceKey, err)
		return nil, nil
	}
	return &at, nil
}

// read returns the stored book for sourceKey, empty when missing or corrupt.
// Callers hold r.mu.
func (r *progressRepository) read(log *logger.Logger, sourceKey string) models.ProgressBook {
	book := models.ProgressBook{}
	key := toKey(sourceKey, progressKey)
	if !r.d.Has(key) {
		return book
	}
	b, err := r.d.Read(key)
	if err != nil {
		log.Warn("failed to read progress for source=%s: %v", sourceKey, err)
		return book
	}

	var raw map[string]models.ProgressEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		log.Warn("corrupt progress payload for source=%s: %v", sourceKey, err)
		return book
	}

	skipped := 0
	for id, e := range raw {
		if e.Box < flashcard.MinBox || e.Box > flashcard.MaxBox || !flashcard.ValidDate(e.Due) {
			skipped++
			continue
		}
		book[id] = e
	}
	if skipped > 0 {
		log.Warn("skipped %d corrupt progress entries for source=%s", skipped, sourceKey)
	}
	return book
}

// toKey makes `<sha1(source)>-<name>`; the hash keeps arbitrary URLs off the
// filesystem.
func toKey(sourceKey, name string) string {
	sum := sha1.Sum([]byte(sourceKey))
	return fmt.Sprintf("%s-%s", hex.EncodeToString(sum[:]), name)
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}
