package flashcard

import (
	"time"

	"github.com/vytor/vocabflash/internal/models"
)

const (
	MinBox = 1
	MaxBox = 5

	// DateLayout is the calendar date format used for due dates.
	DateLayout = "2006-01-02"
)

// Intervals maps a Leitner box to the days until the card is due again.
// This is a fixed table, not an adaptive SM-2 schedule.
var Intervals = map[int]int{1: 0, 2: 1, 3: 2, 4: 4, 5: 7}

// ApplyReview moves a card between Leitner boxes and computes its next due date.
//
//	again: back to box 1
//	good:  up one box
//	easy:  up two boxes
//
// The box is clamped to [MinBox, MaxBox] and due is today plus Intervals[box].
func ApplyReview(entry models.ProgressEntry, outcome models.Outcome, today string) models.ProgressEntry {
	box := ClampBox(entry.Box)
	switch outcome {
	case models.OutcomeAgain:
		box = MinBox
	case models.OutcomeGood:
		box++
	case models.OutcomeEasy:
		box += 2
	}
	box = ClampBox(box)

	return models.ProgressEntry{
		Box: box,
		Due: AddDays(today, Intervals[box]),
	}
}

// ClampBox forces box into [MinBox, MaxBox].
func ClampBox(box int) int {
	if box < MinBox {
		return MinBox
	}
	if box > MaxBox {
		return MaxBox
	}
	return box
}

// Today formats t as a calendar date in t's location.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n days. An unparsable date is returned unchanged.
func AddDays(date string, n int) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, n).Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
