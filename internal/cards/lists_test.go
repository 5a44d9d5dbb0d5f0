package cards_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/vocabflash/internal/cards"
	"github.com/vytor/vocabflash/internal/models"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "cognate", want: []string{"cognate"}},
		{in: "a, b;c |d", want: []string{"a", "b", "c", "d"}},
		{in: ",,; |", want: []string{}},
		{in: "faux ami; verb", want: []string{"faux ami", "verb"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cards.SplitList(tt.in))
		})
	}
}

func TestHasLabel(t *testing.T) {
	assert.True(t, cards.HasLabel("noun; Cognate", "cognate"))
	assert.True(t, cards.HasLabel("a|b", "B"))
	assert.False(t, cards.HasLabel("cognates", "cognate"))
	assert.False(t, cards.HasLabel("", "cognate"))
}

func TestCollect(t *testing.T) {
	cs := []models.Card{
		{Deck: "B", Lesson: "10", Labels: "verb"},
		{Deck: "A", Lesson: "2", Labels: "noun, cognate"},
		{Deck: "A", Lesson: "intro", Labels: "noun"},
		{Deck: "", Lesson: "1"},
	}

	f := cards.Collect(cs)

	assert.Equal(t, []string{"A", "B"}, f.Decks)
	assert.Equal(t, []string{"1", "2", "10", "intro"}, f.Lessons)
	assert.Equal(t, []string{"cognate", "noun", "verb"}, f.Labels)
}
