package session

import (
	"regexp"
	"strings"

	"github.com/vytor/vocabflash/internal/cards"
	"github.com/vytor/vocabflash/internal/models"
)

const maxTags = 8

// Present derives what the UI shows for the current card.
func (s State) Present() models.Presentation {
	p := models.Presentation{
		Direction:     s.Direction,
		Flipped:       s.Flipped,
		Revealed:      s.Revealed,
		SourceVisible: s.SourceVisible(),
		Total:         len(s.Queue),
		Tags:          []string{},
	}
	c, ok := s.Current()
	if !ok {
		p.Empty = true
		return p
	}

	p.CardID = c.ID
	p.Position = s.Cursor + 1
	p.Meta = c.Labels
	p.Notes = c.Notes
	if tags := cards.SplitList(c.Tags); len(tags) > 0 {
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}
		p.Tags = tags
	}

	if s.Direction == models.TargetFront {
		p.Term = c.English
		p.Answer = frenchDisplay(c)
	} else {
		p.Article = c.Article
		p.Term = c.French
		p.Answer = c.English
	}

	if p.SourceVisible {
		p.Pron = c.Pron
		p.ForvoURL = ForvoURL(c)
		if s.Revealed {
			p.Sentence = c.Sentence
		}
	}
	return p
}

func frenchDisplay(c models.Card) string {
	if c.Article == "" {
		return c.French
	}
	return strings.TrimSpace(c.Article + " " + c.French)
}

var (
	genderMarker = regexp.MustCompile(`(?i)\((?:m|f)(?:\s*pl)?\)`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// ForvoSlug normalizes a French term for a forvo.com word URL.
func ForvoSlug(display string) string {
	t := strings.TrimSpace(display)
	t = strings.TrimSpace(genderMarker.ReplaceAllString(t, ""))
	t = strings.ReplaceAll(t, "’", "'")
	t = whitespace.ReplaceAllString(t, " ")
	t = strings.NewReplacer("'", "_", " ", "_").Replace(t)
	return strings.ToLower(t)
}

// ForvoURL links to the pronunciation of the card's article and French term.
func ForvoURL(c models.Card) string {
	slug := ForvoSlug(frenchDisplay(c))
	if slug == "" {
		return ""
	}
	return "https://forvo.com/word/" + slug + "/#fr"
}
