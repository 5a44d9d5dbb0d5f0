package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vytor/vocabflash/internal/cards"
	"github.com/vytor/vocabflash/internal/csvparse"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/query"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/session"
	"github.com/vytor/vocabflash/internal/source"
)

// StudyService owns the study state of every card source the user has opened.
// All methods are safe for concurrent use.
type StudyService interface {
	Refresh(ctx context.Context, src string, bust bool) (*models.Snapshot, error)
	Snapshot(ctx context.Context, src string) (*models.Snapshot, error)
	Facets(ctx context.Context, src string) (*models.Facets, error)
	SetFilters(ctx context.Context, src string, f models.Filters) (*models.Snapshot, error)
	SetDirection(ctx context.Context, src string, d models.Direction) (*models.Snapshot, error)
	Flip(ctx context.Context, src string) (*models.Snapshot, error)
	ToggleReveal(ctx context.Context, src string) (*models.Snapshot, error)
	Advance(ctx context.Context, src string, step int) (*models.Snapshot, error)
	Grade(ctx context.Context, src string, outcome models.Outcome) (*models.Snapshot, error)
	ResetProgress(ctx context.Context, src string) (*models.Snapshot, error)
	Sources() []string
}

// StudyOption configures a StudyService.
type StudyOption func(*studyService)

// WithClock sets the time source that decides "today".
func WithClock(now func() time.Time) StudyOption {
	return func(s *studyService) { s.now = now }
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) StudyOption {
	return func(s *studyService) { s.rng = rng }
}

// WithIdentity selects how cards without an explicit id are keyed.
func WithIdentity(identity cards.Identity) StudyOption {
	return func(s *studyService) { s.mapOpts.Identity = identity }
}

// studyDeck is the in-memory state of one loaded source.
type studyDeck struct {
	cards         []models.Card
	filters       models.Filters
	state         session.State
	book          models.ProgressBook
	lastRefreshed *time.Time
}

type studyService struct {
	progressRepo repository.ProgressRepository
	fetcher      source.Fetcher
	mapOpts      cards.Options
	now          func() time.Time
	rng          *rand.Rand

	mu     sync.Mutex
	decks  map[string]*studyDeck
	tokens map[string]uint64
}

// NewStudyService creates a new StudyService
func NewStudyService(progressRepo repository.ProgressRepository, fetcher source.Fetcher, opts ...StudyOption) StudyService {
	s := &studyService{
		progressRepo: progressRepo,
		fetcher:      fetcher,
		now:          time.Now,
		decks:        map[string]*studyDeck{},
		tokens:       map[string]uint64{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

func (s *studyService) Refresh(ctx context.Context, src string, bust bool) (*models.Snapshot, error) {
	log := logger.FromContext(ctx).WithField("source", src)
	if src == "" {
		return nil, errors.NewValidationError("source", "cannot be empty")
	}

	s.mu.Lock()
	s.tokens[src]++
	token := s.tokens[src]
	s.mu.Unlock()

	log.Debug("refreshing source: token=%d, bust=%t", token, bust)
	start := time.Now()

	text, err := s.fetcher.Fetch(ctx, src, bust)
	if err != nil {
		log.Error("failed to load source: %v", err)
		return nil, errors.NewUpstreamError(err)
	}
	loaded := cards.Map(csvparse.Parse(text), s.mapOpts)
	log.Debug("mapped %d cards in %v", len(loaded), time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.decks[src]
	if s.tokens[src] != token {
		log.Info("discarding stale refresh: token=%d, latest=%d", token, s.tokens[src])
		if d == nil {
			return s.unloadedSnapshot(ctx, src), nil
		}
		return d.snapshot(src), nil
	}

	if d == nil {
		d = &studyDeck{filters: models.DefaultFilters(), state: session.New()}
		s.decks[src] = d
	}
	d.cards = loaded

	now := s.now()
	if err := s.progressRepo.MarkRefreshed(ctx, src, now); err != nil {
		log.Warn("failed to record refresh time: %v", err)
	}
	d.lastRefreshed = &now

	s.rebuild(ctx, src, d)
	log.Info("loaded %d cards, queue=%d", len(d.cards), len(d.state.Queue))
	return d.snapshot(src), nil
}

func (s *studyService) Snapshot(ctx context.Context, src string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.decks[src]
	if !ok {
		return s.unloadedSnapshot(ctx, src), nil
	}
	return d.snapshot(src), nil
}

func (s *studyService) Facets(ctx context.Context, src string) (*models.Facets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loaded(ctx, src)
	if err != nil {
		return nil, err
	}
	facets := cards.Collect(d.cards)
	return &facets, nil
}

func (s *studyService) SetFilters(ctx context.Context, src string, f models.Filters) (*models.Snapshot, error) {
	log := logger.FromContext(ctx).WithField("source", src)
	log.Debug("setting filters: %+v", f)

	return s.update(ctx, src, func(d *studyDeck) {
		d.filters = f
		s.rebuild(ctx, src, d)
	})
}

func (s *studyService) SetDirection(ctx context.Context, src string, dir models.Direction) (*models.Snapshot, error) {
	return s.update(ctx, src, func(d *studyDeck) {
		d.state = d.state.SetDirection(dir)
	})
}

func (s *studyService) Flip(ctx context.Context, src string) (*models.Snapshot, error) {
	return s.update(ctx, src, func(d *studyDeck) {
		d.state = d.state.Flip()
	})
}

func (s *studyService) ToggleReveal(ctx context.Context, src string) (*models.Snapshot, error) {
	return s.update(ctx, src, func(d *studyDeck) {
		d.state = d.state.ToggleReveal()
	})
}

func (s *studyService) Advance(ctx context.Context, src string, step int) (*models.Snapshot, error) {
	return s.update(ctx, src, func(d *studyDeck) {
		d.state = d.state.Advance(step)
	})
}

func (s *studyService) Grade(ctx context.Context, src string, outcome models.Outcome) (*models.Snapshot, error) {
	log := logger.FromContext(ctx).WithField("source", src)

	return s.update(ctx, src, func(d *studyDeck) {
		card, _ := d.state.Current()
		next, entry, ok := d.state.Grade(outcome, d.book, flashcard.Today(s.now()))
		if !ok {
			log.Debug("grade ignored: queue is empty")
			return
		}
		d.state = next
		log.Debug("graded card: id=%q, outcome=%s, box=%d, due=%s", card.ID, outcome, entry.Box, entry.Due)

		if err := s.progressRepo.Save(ctx, src, d.book); err != nil {
			log.Warn("failed to persist progress: %v", err)
		}
	})
}

func (s *studyService) ResetProgress(ctx context.Context, src string) (*models.Snapshot, error) {
	log := logger.FromContext(ctx).WithField("source", src)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.progressRepo.Reset(ctx, src); err != nil {
		log.Error("failed to reset progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("progress reset")

	d, ok := s.decks[src]
	if !ok {
		return s.unloadedSnapshot(ctx, src), nil
	}
	d.book = models.ProgressBook{}
	s.rebuild(ctx, src, d)
	return d.snapshot(src), nil
}

// Sources returns every source loaded at least once, sorted.
func (s *studyService) Sources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.decks))
	for src := range s.decks {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// update runs fn against a loaded deck under the lock.
func (s *studyService) update(ctx context.Context, src string, fn func(*studyDeck)) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loaded(ctx, src)
	if err != nil {
		return nil, err
	}
	fn(d)
	return d.snapshot(src), nil
}

func (s *studyService) loaded(ctx context.Context, src string) (*studyDeck, error) {
	d, ok := s.decks[src]
	if !ok {
		logger.FromContext(ctx).Debug("source not loaded: %s", src)
		return nil, errors.NewNotFoundError("source", src)
	}
	return d, nil
}

// rebuild reloads progress and rebuilds the queue. Callers hold s.mu.
func (s *studyService) rebuild(ctx context.Context, src string, d *studyDeck) {
	log := logger.FromContext(ctx).WithField("source", src)

	book, err := s.progressRepo.Load(ctx, src)
	if err != nil {
		log.Warn("failed to load progress, starting empty: %v", err)
		book = nil
	}
	if book == nil {
		book = models.ProgressBook{}
	}
	d.book = book

	q := query.BuildQueue(d.cards, d.book, d.filters, flashcard.Today(s.now()), s.rng)
	d.state = d.state.SetQueue(q)
	log.Debug("queue rebuilt: %d of %d cards", len(q), len(d.cards))
}

func (s *studyService) unloadedSnapshot(ctx context.Context, src string) *models.Snapshot {
	snap := &models.Snapshot{
		Source:  src,
		Filters: models.DefaultFilters(),
		Card:    session.New().Present(),
	}
	snap.Stats = stats(0, 0, snap.Filters.StudyMode)

	at, err := s.progressRepo.LastRefreshed(ctx, src)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to read last refresh: %v", err)
	}
	snap.LastRefreshed = at
	return snap
}

func (d *studyDeck) snapshot(src string) *models.Snapshot {
	return &models.Snapshot{
		Source:        src,
		Loaded:        true,
		LastRefreshed: d.lastRefreshed,
		Filters:       d.filters,
		Stats:         stats(len(d.cards), len(d.state.Queue), d.filters.StudyMode),
		Card:          d.state.Present(),
	}
}

func stats(total, queued int, mode models.StudyMode) models.QueueStats {
	return models.QueueStats{
		Cards:   total,
		Queue:   queued,
		Mode:    mode.Label(),
		Summary: fmt.Sprintf("%d cards · %s", queued, mode.Label()),
	}
}
