// Package query filters and orders cards into a study queue.
package query

import (
	"math/rand"
	"strings"
	"time"

	"github.com/vytor/vocabflash/internal/cards"
	"github.com/vytor/vocabflash/internal/models"
)

// BuildQueue returns the cards that pass every active filter, in source order
// unless f.Shuffle is set. In due mode missing progress entries are created in
// book, the same way a first due-check does; a nil book is treated as empty
// and the created entries are discarded. cs is never modified.
// A nil rng uses a time-seeded source.
func BuildQueue(cs []models.Card, book models.ProgressBook, f models.Filters, today string, rng *rand.Rand) []models.Card {
	deck := strings.ToLower(strings.TrimSpace(f.Deck))
	lesson := strings.ToLower(strings.TrimSpace(f.Lesson))
	label := strings.TrimSpace(f.Label)
	search := strings.ToLower(f.Search)
	if book == nil && f.StudyMode == models.StudyDue {
		book = models.ProgressBook{}
	}

	out := make([]models.Card, 0, len(cs))
	for _, c := range cs {
		if deck != "" && strings.ToLower(c.Deck) != deck {
			continue
		}
		if lesson != "" && strings.ToLower(c.Lesson) != lesson {
			continue
		}
		if label != "" && !cards.HasLabel(c.Labels, label) {
			continue
		}
		if search != "" && !strings.Contains(haystack(c), search) {
			continue
		}
		if f.StudyMode == models.StudyDue {
			if book.Ensure(c.ID, today).Due > today {
				continue
			}
		}
		out = append(out, c)
	}

	if f.Shuffle {
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		Shuffle(out, rng)
	}
	return out
}

// Shuffle permutes cs in place with Fisher-Yates.
func Shuffle(cs []models.Card, rng *rand.Rand) {
	for i := len(cs) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cs[i], cs[j] = cs[j], cs[i]
	}
}

func haystack(c models.Card) string {
	return strings.ToLower(strings.Join([]string{c.French, c.English, c.Sentence, c.Tags, c.Labels}, " "))
}

// CountDue returns how many cards are due on or before today. Missing entries count as due.
func CountDue(cs []models.Card, book models.ProgressBook, today string) int {
	n := 0
	for _, c := range cs {
		e, ok := book[c.ID]
		if !ok || e.Due <= today {
			n++
		}
	}
	return n
}
