package services_test

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository/sqlite"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/testutil"
	"github.com/vytor/vocabflash/internal/testutil/mocks"
)

const src = "https://example.com/vocab.csv"

var inOrder = models.Filters{StudyMode: models.StudyAll}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func newService(repo *mocks.MockProgressRepository, fetcher *mocks.MockFetcher, c *clock) services.StudyService {
	return services.NewStudyService(repo, fetcher,
		services.WithClock(c.Now),
		services.WithRand(rand.New(rand.NewSource(1))),
	)
}

func stubRepo() *mocks.MockProgressRepository {
	repo := new(mocks.MockProgressRepository)
	repo.On("Load", mock.Anything, src).Return(models.ProgressBook{}, nil)
	repo.On("MarkRefreshed", mock.Anything, src, mock.Anything).Return(nil)
	return repo
}

func stubFetcher() *mocks.MockFetcher {
	fetcher := new(mocks.MockFetcher)
	fetcher.On("Fetch", mock.Anything, src, mock.Anything).Return(testutil.SampleCSV, nil)
	return fetcher
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestRefresh_LoadsCardsAndMarksRefreshed(t *testing.T) {
	repo, fetcher, c := stubRepo(), stubFetcher(), newClock()
	svc := newService(repo, fetcher, c)

	snap, err := svc.Refresh(context.Background(), src, true)
	require.NoError(t, err)

	assert.True(t, snap.Loaded)
	assert.Equal(t, src, snap.Source)
	assert.Equal(t, models.DefaultFilters(), snap.Filters)
	assert.Equal(t, 4, snap.Stats.Cards)
	assert.Equal(t, 4, snap.Stats.Queue)
	assert.Equal(t, "4 cards · due today", snap.Stats.Summary)
	require.NotNil(t, snap.LastRefreshed)
	assert.True(t, c.Now().Equal(*snap.LastRefreshed))
	assert.False(t, snap.Card.Empty)
	assert.Equal(t, 1, snap.Card.Position)

	fetcher.AssertCalled(t, "Fetch", mock.Anything, src, true)
	repo.AssertCalled(t, "MarkRefreshed", mock.Anything, src, c.Now())
}

func TestRefresh_FailureKeepsPreviousState(t *testing.T) {
	repo, c := stubRepo(), newClock()
	fetcher := new(mocks.MockFetcher)
	fetcher.On("Fetch", mock.Anything, src, false).Return(testutil.SampleCSV, nil).Once()
	fetcher.On("Fetch", mock.Anything, src, false).Return("", stderrors.New("connection refused")).Once()
	svc := newService(repo, fetcher, c)

	ctx := context.Background()
	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, src, 2)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, src, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUpstream, appCode(t, err))
	assert.Contains(t, err.Error(), "load failed: connection refused")

	snap, err := svc.Snapshot(ctx, src)
	require.NoError(t, err)
	assert.True(t, snap.Loaded)
	assert.Equal(t, 4, snap.Stats.Cards)
	assert.Equal(t, 3, snap.Card.Position)
}

func TestRefresh_FailureOnFirstLoad(t *testing.T) {
	repo, c := stubRepo(), newClock()
	repo.On("LastRefreshed", mock.Anything, src).Return(nil, nil)
	fetcher := new(mocks.MockFetcher)
	fetcher.On("Fetch", mock.Anything, src, false).Return("", stderrors.New("status 404"))
	svc := newService(repo, fetcher, c)

	_, err := svc.Refresh(context.Background(), src, false)
	require.Error(t, err)

	snap, err := svc.Snapshot(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, snap.Loaded)
	assert.True(t, snap.Card.Empty)
	assert.Empty(t, svc.Sources())
}

func TestRefresh_StaleResponseIsDiscarded(t *testing.T) {
	repo, c := stubRepo(), newClock()
	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := new(mocks.MockFetcher)
	fetcher.On("Fetch", mock.Anything, src, false).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return("french,english\nvieux,old\n", nil).Once()
	fetcher.On("Fetch", mock.Anything, src, false).
		Return("french,english\nneuf,new\nrécent,recent\n", nil).Once()

	svc := newService(repo, fetcher, c)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		slowSnap *models.Snapshot
		slowErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowSnap, slowErr = svc.Refresh(ctx, src, false)
	}()
	<-started

	fresh, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Stats.Cards)

	close(release)
	wg.Wait()

	require.NoError(t, slowErr)
	assert.Equal(t, 2, slowSnap.Stats.Cards, "stale response must not replace newer cards")

	snap, err := svc.Snapshot(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Stats.Cards)
	repo.AssertNumberOfCalls(t, "MarkRefreshed", 1)
}

func TestRefresh_EmptySource(t *testing.T) {
	svc := newService(stubRepo(), new(mocks.MockFetcher), newClock())

	_, err := svc.Refresh(context.Background(), "", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, appCode(t, err))
}

func TestRefresh_LoadErrorStartsEmpty(t *testing.T) {
	repo := new(mocks.MockProgressRepository)
	repo.On("Load", mock.Anything, src).Return(nil, stderrors.New("disk on fire"))
	repo.On("MarkRefreshed", mock.Anything, src, mock.Anything).Return(nil)
	svc := newService(repo, stubFetcher(), newClock())

	snap, err := svc.Refresh(context.Background(), src, false)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Stats.Queue)
}

func TestRefresh_DueModeSkipsFutureCards(t *testing.T) {
	repo := new(mocks.MockProgressRepository)
	repo.On("Load", mock.Anything, src).Return(models.ProgressBook{
		"1": {Box: 3, Due: "2024-03-12"},
		"2": {Box: 1, Due: "2024-03-10"},
		"3": {Box: 2, Due: "2024-03-09"},
	}, nil)
	repo.On("MarkRefreshed", mock.Anything, src, mock.Anything).Return(nil)
	svc := newService(repo, stubFetcher(), newClock())

	snap, err := svc.Refresh(context.Background(), src, false)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Stats.Queue)
	assert.NotEqual(t, "1", snap.Card.CardID)
}

func TestCommands_RequireLoadedSource(t *testing.T) {
	repo := stubRepo()
	repo.On("LastRefreshed", mock.Anything, src).Return(nil, nil)
	svc := newService(repo, stubFetcher(), newClock())
	ctx := context.Background()

	commands := map[string]func() error{
		"facets": func() error { _, err := svc.Facets(ctx, src); return err },
		"filters": func() error {
			_, err := svc.SetFilters(ctx, src, models.DefaultFilters())
			return err
		},
		"direction": func() error { _, err := svc.SetDirection(ctx, src, models.TargetFront); return err },
		"flip":      func() error { _, err := svc.Flip(ctx, src); return err },
		"reveal":    func() error { _, err := svc.ToggleReveal(ctx, src); return err },
		"advance":   func() error { _, err := svc.Advance(ctx, src, 1); return err },
		"grade":     func() error { _, err := svc.Grade(ctx, src, models.OutcomeGood); return err },
	}
	for name, run := range commands {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))
		})
	}

	snap, err := svc.Snapshot(ctx, src)
	require.NoError(t, err)
	assert.False(t, snap.Loaded)
	assert.True(t, snap.Card.Empty)
	assert.Equal(t, "0 cards · due today", snap.Stats.Summary)
}

func TestSnapshot_UnloadedReportsStoredRefreshTime(t *testing.T) {
	at := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	repo := new(mocks.MockProgressRepository)
	repo.On("LastRefreshed", mock.Anything, src).Return(&at, nil)
	svc := newService(repo, new(mocks.MockFetcher), newClock())

	snap, err := svc.Snapshot(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, snap.LastRefreshed)
	assert.True(t, at.Equal(*snap.LastRefreshed))
}

func TestGrade_PersistsAndAdvances(t *testing.T) {
	repo, c := stubRepo(), newClock()
	repo.On("Save", mock.Anything, src, models.ProgressBook{"1": {Box: 2, Due: "2024-03-11"}}).Return(nil).Once()
	svc := newService(repo, stubFetcher(), c)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)
	snap, err := svc.SetFilters(ctx, src, inOrder)
	require.NoError(t, err)
	require.Equal(t, "1", snap.Card.CardID)

	snap, err = svc.Grade(ctx, src, models.OutcomeGood)
	require.NoError(t, err)
	assert.Equal(t, "2", snap.Card.CardID)
	assert.Equal(t, 2, snap.Card.Position)
	assert.Equal(t, 4, snap.Stats.Queue, "grading does not rebuild the queue")
	repo.AssertExpectations(t)
}

func TestGrade_SaveFailureIsNotFatal(t *testing.T) {
	repo := stubRepo()
	repo.On("Save", mock.Anything, src, mock.Anything).Return(stderrors.New("read-only"))
	svc := newService(repo, stubFetcher(), newClock())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)

	snap, err := svc.Grade(ctx, src, models.OutcomeAgain)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Card.Position)
}

func TestGrade_EmptyQueueIsNoop(t *testing.T) {
	repo := stubRepo()
	svc := newService(repo, stubFetcher(), newClock())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)
	snap, err := svc.SetFilters(ctx, src, models.Filters{StudyMode: models.StudyAll, Search: "zzz"})
	require.NoError(t, err)
	require.True(t, snap.Card.Empty)

	snap, err = svc.Grade(ctx, src, models.OutcomeEasy)
	require.NoError(t, err)
	assert.True(t, snap.Card.Empty)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCardControls(t *testing.T) {
	svc := newService(stubRepo(), stubFetcher(), newClock())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)
	snap, err := svc.SetFilters(ctx, src, inOrder)
	require.NoError(t, err)
	assert.Equal(t, "chat", snap.Card.Term)
	assert.True(t, snap.Card.SourceVisible)

	snap, err = svc.ToggleReveal(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "Le chat dort, enfin.", snap.Card.Sentence)

	snap, err = svc.Flip(ctx, src)
	require.NoError(t, err)
	assert.False(t, snap.Card.Revealed)
	assert.False(t, snap.Card.SourceVisible)

	snap, err = svc.SetDirection(ctx, src, models.TargetFront)
	require.NoError(t, err)
	assert.Equal(t, "cat", snap.Card.Term)
	assert.Equal(t, "le chat", snap.Card.Answer)

	snap, err = svc.Advance(ctx, src, -1)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Card.Position)
	assert.Equal(t, "station", snap.Card.Term)
}

func TestFacets(t *testing.T) {
	svc := newService(stubRepo(), stubFetcher(), newClock())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)

	facets, err := svc.Facets(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basics", "Travel"}, facets.Decks)
	assert.Equal(t, []string{"1", "2"}, facets.Lessons)
}

func TestResetProgress(t *testing.T) {
	repo := stubRepo()
	repo.On("Reset", mock.Anything, src).Return(nil)
	svc := newService(repo, stubFetcher(), newClock())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)

	snap, err := svc.ResetProgress(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Stats.Queue)
	repo.AssertCalled(t, "Reset", mock.Anything, src)
	repo.AssertNumberOfCalls(t, "Load", 2)
}

func TestResetProgress_StoreFailure(t *testing.T) {
	repo := stubRepo()
	repo.On("Reset", mock.Anything, src).Return(stderrors.New("locked"))
	svc := newService(repo, stubFetcher(), newClock())

	_, err := svc.ResetProgress(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, appCode(t, err))
}

func TestSources(t *testing.T) {
	const other = "https://example.com/another.csv"
	repo := stubRepo()
	repo.On("Load", mock.Anything, other).Return(models.ProgressBook{}, nil)
	repo.On("MarkRefreshed", mock.Anything, other, mock.Anything).Return(nil)
	fetcher := stubFetcher()
	fetcher.On("Fetch", mock.Anything, other, mock.Anything).Return(testutil.SampleCSV, nil)
	svc := newService(repo, fetcher, newClock())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, other, false)
	require.NoError(t, err)

	assert.Equal(t, []string{other, src}, svc.Sources())
}

func TestStudyFlowWithSQLite(t *testing.T) {
	conn := testutil.NewTestDB(t)
	defer testutil.MustClose(t, conn)

	c := newClock()
	svc := services.NewStudyService(sqlite.NewProgressRepository(conn), stubFetcher(),
		services.WithClock(c.Now),
		services.WithRand(rand.New(rand.NewSource(1))),
	)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, src, false)
	require.NoError(t, err)

	noShuffle := models.Filters{StudyMode: models.StudyDue}
	snap, err := svc.SetFilters(ctx, src, noShuffle)
	require.NoError(t, err)
	require.Equal(t, 4, snap.Stats.Queue)

	_, err = svc.Grade(ctx, src, models.OutcomeGood)
	require.NoError(t, err)
	_, err = svc.Grade(ctx, src, models.OutcomeEasy)
	require.NoError(t, err)

	snap, err = svc.SetFilters(ctx, src, noShuffle)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Stats.Queue)

	c.AddDays(1)
	snap, err = svc.SetFilters(ctx, src, noShuffle)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Stats.Queue, "box 2 card comes back after one day")

	c.AddDays(1)
	snap, err = svc.SetFilters(ctx, src, noShuffle)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Stats.Queue)

	snap, err = svc.ResetProgress(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Stats.Queue)
}
