package models

import (
	"fmt"
	"strings"
	"time"
)

type StudyMode string

const (
	StudyDue StudyMode = "due"
	StudyAll StudyMode = "all"
)

// Label returns the human readable queue description used in stats.
func (m StudyMode) Label() string {
	if m == StudyDue {
		return "due today"
	}
	return "in view"
}

type Outcome string

const (
	OutcomeAgain Outcome = "again"
	OutcomeGood  Outcome = "good"
	OutcomeEasy  Outcome = "easy"
)

// ParseOutcome accepts the outcome names and the keyboard aliases 1/2/3 and a/g/e.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again", "1", "a":
		return OutcomeAgain, nil
	case "good", "2", "g":
		return OutcomeGood, nil
	case "easy", "3", "e":
		return OutcomeEasy, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Direction selects which language is shown on the front of a card.
type Direction string

const (
	SourceFront Direction = "fr-en"
	TargetFront Direction = "en-fr"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case SourceFront:
		return SourceFront, nil
	case TargetFront:
		return TargetFront, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Filters are the conjunctive query options for building a study queue.
type Filters struct {
	Deck      string    `json:"deck"`
	Lesson    string    `json:"lesson"`
	Label     string    `json:"label"`
	Search    string    `json:"search"`
	StudyMode StudyMode `json:"study_mode"`
	Shuffle   bool      `json:"shuffle"`
}

// DefaultFilters matches the initial state of the study controls.
func DefaultFilters() Filters {
	return Filters{StudyMode: StudyDue, Shuffle: true}
}

// Presentation is what the UI renders for the current card.
type Presentation struct {
	Empty         bool      `json:"empty"`
	CardID        string    `json:"card_id,omitempty"`
	Direction     Direction `json:"direction"`
	Flipped       bool      `json:"flipped"`
	Revealed      bool      `json:"revealed"`
	SourceVisible bool      `json:"source_visible"`
	Article       string    `json:"article"`
	Term          string    `json:"term"`
	Answer        string    `json:"answer"`
	Pron          string    `json:"pron"`
	Sentence      string    `json:"sentence"`
	ForvoURL      string    `json:"forvo_url,omitempty"`
	Meta          string    `json:"meta"`
	Notes         string    `json:"notes"`
	Tags          []string  `json:"tags"`
	Position      int       `json:"position"`
	Total         int       `json:"total"`
}

// QueueStats summarises the active queue.
type QueueStats struct {
	Cards   int    `json:"cards"`
	Queue   int    `json:"queue"`
	Mode    string `json:"mode"`
	Summary string `json:"summary"`
}

// Snapshot is the full study state returned to clients after every command.
type Snapshot struct {
	Source        string       `json:"source"`
	Loaded        bool         `json:"loaded"`
	LastRefreshed *time.Time   `json:"last_refreshed,omitempty"`
	Filters       Filters      `json:"filters"`
	Stats         QueueStats   `json:"stats"`
	Card          Presentation `json:"card"`
}
