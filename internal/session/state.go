// Package session holds the study cursor as an explicit state value.
//
// Every transition takes a State and returns the next one, so callers own
// the state and tests need no rendering surface.
package session

import (
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/models"
)

// State is the position within a queue plus the face/reveal flags of the current card.
// Cursor is -1 when the queue is empty.
type State struct {
	Queue     []models.Card
	Cursor    int
	Direction models.Direction
	Flipped   bool
	Revealed  bool
}

// New returns an empty session showing the source language first.
func New() State {
	return State{Cursor: -1, Direction: models.SourceFront}
}

// Empty reports whether there is no card to show.
func (s State) Empty() bool {
	return len(s.Queue) == 0
}

// Current returns the card under the cursor.
func (s State) Current() (models.Card, bool) {
	if s.Empty() || s.Cursor < 0 || s.Cursor >= len(s.Queue) {
		return models.Card{}, false
	}
	return s.Queue[s.Cursor], true
}

func (s State) SetQueue(q []models.Card) State {
	s.Queue = q
	s.Cursor = -1
	if len(q) > 0 {
		s.Cursor = 0
	}
	s.Flipped = false
	s.Revealed = false
	return s
}

// Advance moves the cursor by step, wrapping in both directions.
func (s State) Advance(step int) State {
	n := len(s.Queue)
	if n == 0 {
		return s
	}
	s.Cursor = ((s.Cursor+step)%n + n) % n
	s.Flipped = false
	s.Revealed = false
	return s
}

func (s State) Flip() State {
	s.Flipped = !s.Flipped
	s.Revealed = false
	return s
}

func (s State) SetDirection(d models.Direction) State {
	s.Direction = d
	s.Flipped = false
	s.Revealed = false
	return s
}

// SourceVisible reports whether the French face is the one facing the user.
func (s State) SourceVisible() bool {
	if s.Direction == models.TargetFront {
		return s.Flipped
	}
	return !s.Flipped
}

// ToggleReveal shows or hides the example sentence. It does nothing unless
// the source face is visible.
func (s State) ToggleReveal() State {
	if s.Empty() || !s.SourceVisible() {
		return s
	}
	s.Revealed = !s.Revealed
	return s
}

// Grade applies outcome to the current card's entry in book and moves to the
// next card. The updated entry is returned; ok is false on an empty queue.
func (s State) Grade(outcome models.Outcome, book models.ProgressBook, today string) (next State, entry models.ProgressEntry, ok bool) {
	c, ok := s.Current()
	if !ok {
		return s, models.ProgressEntry{}, false
	}
	entry = flashcard.ApplyReview(book.Ensure(c.ID, today), outcome, today)
	book[c.ID] = entry
	return s.Advance(1), entry, true
}
