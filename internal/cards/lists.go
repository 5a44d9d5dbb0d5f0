package cards

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vytor/vocabflash/internal/models"
)

// ListDelimiters are the separators accepted inside labels and tags cells.
const ListDelimiters = ",;|"

// SplitList splits a labels or tags cell into trimmed, non-empty tokens.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(ListDelimiters, r)
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// HasLabel reports whether any token of labels equals label, ignoring case.
func HasLabel(labels, label string) bool {
	for _, tok := range SplitList(labels) {
		if strings.EqualFold(tok, label) {
			return true
		}
	}
	return false
}

// Collect gathers the distinct decks, lessons and labels of a card set.
func Collect(cs []models.Card) models.Facets {
	decks := map[string]bool{}
	lessons := map[string]bool{}
	labels := map[string]bool{}
	for _, c := range cs {
		if c.Deck != "" {
			decks[c.Deck] = true
		}
		if c.Lesson != "" {
			lessons[c.Lesson] = true
		}
		for _, l := range SplitList(c.Labels) {
			labels[l] = true
		}
	}

	f := models.Facets{
		Decks:   keys(decks),
		Lessons: keys(lessons),
		Labels:  keys(labels),
	}
	sort.Strings(f.Decks)
	sort.Strings(f.Labels)
	sort.SliceStable(f.Lessons, func(i, j int) bool {
		return lessonLess(f.Lessons[i], f.Lessons[j])
	})
	return f
}

// lessonLess orders numerically when both values are numbers.
func lessonLess(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
