package jobs

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vytor/vocabflash/internal/logger"
)

// Ticker periodically enqueues a refresh of every known source.
type Ticker struct {
	scheduler *gocron.Scheduler
	queue     JobQueue
	sources   func() []string
	interval  time.Duration
	log       *logger.Logger
}

// NewTicker creates a Ticker. sources is consulted on every tick.
func NewTicker(queue JobQueue, sources func() []string, interval time.Duration) *Ticker {
	return &Ticker{
		scheduler: gocron.NewScheduler(time.UTC),
		queue:     queue,
		sources:   sources,
		interval:  interval,
		log:       logger.Default().WithPrefix("ticker"),
	}
}

// Start schedules the periodic refresh. A non-positive interval disables it.
func (t *Ticker) Start() error {
	if t.interval <= 0 {
		t.log.Info("periodic refresh disabled")
		return nil
	}
	if _, err := t.scheduler.Every(t.interval).WaitForSchedule().SingletonMode().Do(func() { t.Tick() }); err != nil {
		return err
	}
	t.scheduler.StartAsync()
	t.log.Info("periodic refresh every %v", t.interval)
	return nil
}

// Stop terminates the schedule.
func (t *Ticker) Stop() {
	if t.scheduler.IsRunning() {
		t.scheduler.Stop()
	}
}

// Tick enqueues one cache-busting refresh per known source and returns how
// many were accepted.
func (t *Ticker) Tick() int {
	queued := 0
	for _, src := range t.sources() {
		if err := t.queue.EnqueueRefresh(src, true); err != nil {
			t.log.Warn("failed to enqueue refresh for %s: %v", src, err)
			continue
		}
		queued++
	}
	t.log.Debug("enqueued %d refreshes", queued)
	return queued
}
