package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
)

// saveBatchSize bounds the rows per INSERT so the statement stays under
// SQLite's bound-variable limit.
const saveBatchSize = 200

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a SQLite-backed ProgressRepository
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Load(ctx context.Context, sourceKey string) (models.ProgressBook, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("loading progress: source=%s", sourceKey)

	query, args, err := sqlBuilder.
		Select("card_id", "box", "due").
		From("progress").
		Where(squirrel.Eq{"source_key": sourceKey}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query progress: %v", err)
		return nil, err
	}
	defer rows.Close()

	book := models.ProgressBook{}
	skipped := 0
	for rows.Next() {
		var (
			id  string
			box any
			due sql.NullString
		)
		if err := rows.Scan(&id, &box, &due); err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		n, ok := box.(int64)
		if !ok || n < flashcard.MinBox || n > flashcard.MaxBox || !due.Valid || !flashcard.ValidDate(due.String) {
			skipped++
			continue
		}
		book[id] = models.ProgressEntry{Box: int(n), Due: due.String}
	}
	if skipped > 0 {
		log.Warn("skipped %d corrupt progress rows for source=%s", skipped, sourceKey)
	}
	log.Debug("loaded %d progress entries", len(book))
	return book, rows.Err()
}

func (r *progressRepository) Save(ctx context.Context, sourceKey string, book models.ProgressBook) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving progress: source=%s, entries=%d", sourceKey, len(book))
	if len(book) == 0 {
		return nil
	}

	ids := make([]string, 0, len(book))
	for id := range book {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += saveBatchSize {
			end := min(start+saveBatchSize, len(ids))

			insert := sqlBuilder.
				Insert("progress").
				Columns("source_key", "card_id", "box", "due")
			for _, id := range ids[start:end] {
				e := book[id]
				insert = insert.Values(sourceKey, id, flashcard.ClampBox(e.Box), e.Due)
			}
			insert = insert.Suffix("ON CONFLICT(source_key, card_id) DO UPDATE SET box = excluded.box, due = excluded.due, updated_at = CURRENT_TIMESTAMP")

			query, args, err := insert.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to upsert progress batch: %v", err)
				return err
			}
		}
		return nil
	})
}

func (r *progressRepository) Reset(ctx context.Context, sourceKey string) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Info("resetting progress: source=%s", sourceKey)

	query, args, err := sqlBuilder.
		Delete("progress").
		Where(squirrel.Eq{"source_key": sourceKey}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to reset progress: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Debug("deleted %d progress rows", n)
	}
	return nil
}

func (r *progressRepository) MarkRefreshed(ctx context.Context, sourceKey string, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("marking source refreshed: source=%s", sourceKey)

	query, args, err := sqlBuilder.
		Insert("sources").
		Columns("source_key", "last_refreshed_at").
		Values(sourceKey, at.UTC()).
		Suffix("ON CONFLICT(source_key) DO UPDATE SET last_refreshed_at = excluded.last_refreshed_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to mark source refreshed: %v", err)
		return err
	}
	return nil
}

func (r *progressRepository) LastRefreshed(ctx context.Context, sourceKey string) (*time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query, args, err := sqlBuilder.
		Select("last_refreshed_at").
		From("sources").
		Where(squirrel.Eq{"source_key": sourceKey}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var at sql.NullTime
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("source never refreshed: source=%s", sourceKey)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to read last refresh: %v", err)
		return nil, err
	}
	if !at.Valid {
		return nil, nil
	}
	t := at.Time
	return &t, nil
}
