// Package cards turns parsed CSV rows into Card records.
package cards

import (
	"strconv"
	"strings"

	"github.com/vytor/vocabflash/internal/models"
)

// Identity selects how a card ID is synthesized when the source has no id column.
type Identity string

const (
	// IdentityComposite keys a card by its deck, lesson, article, french and
	// english values, so reordering rows keeps progress but editing any of
	// those fields upstream starts the card over.
	IdentityComposite Identity = "composite"
	// IdentityPositional keys a card by its 1-based data row number.
	IdentityPositional Identity = "positional"
)

// KeySeparator joins the composite key parts.
const KeySeparator = "\x1f"

type Options struct {
	Identity Identity
}

// ParseIdentity falls back to IdentityComposite for unknown names.
func ParseIdentity(s string) Identity {
	if Identity(strings.ToLower(strings.TrimSpace(s))) == IdentityPositional {
		return IdentityPositional
	}
	return IdentityComposite
}

// Map converts rows (header first) into cards. Unknown columns are ignored,
// missing ones read as empty, and rows without french and english are dropped.
// When two rows resolve to the same ID the first one wins.
func Map(rows [][]string, opts Options) []models.Card {
	if len(rows) == 0 {
		return nil
	}

	h := newHeader(rows[0])
	seen := make(map[string]bool, len(rows)-1)
	out := make([]models.Card, 0, len(rows)-1)

	for ix, r := range rows[1:] {
		c := models.Card{
			Deck:     h.get(r, "deck"),
			Lesson:   h.get(r, "lesson"),
			Article:  h.get(r, "article"),
			French:   h.get(r, "french"),
			English:  h.get(r, "english"),
			Sentence: h.get(r, "sentence"),
			Pron:     h.get(r, "pron"),
			Tags:     h.get(r, "tags"),
			Notes:    h.get(r, "notes"),
			Labels:   h.get(r, "labels"),
		}
		if c.French == "" && c.English == "" {
			continue
		}

		c.ID = h.get(r, "id")
		if c.ID == "" {
			c.ID = synthesizeID(c, ix+1, opts.Identity)
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func synthesizeID(c models.Card, position int, identity Identity) string {
	if identity == IdentityPositional {
		return strconv.Itoa(position)
	}
	parts := []string{c.Deck, c.Lesson, c.Article, c.French, c.English}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, KeySeparator)
}

type header map[string]int

func newHeader(names []string) header {
	h := make(header, len(names))
	for i, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
