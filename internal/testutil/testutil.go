package testutil

import (
	"database/sql"
	"io/fs"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	conn, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)

	migrations := db.Migrations()
	entries, err := fs.ReadDir(migrations, ".")
	require.NoError(t, err)

	for _, entry := range entries {
		sqlBytes, err := fs.ReadFile(migrations, entry.Name())
		require.NoError(t, err, "failed to read migration %s", entry.Name())

		_, err = conn.Exec(string(sqlBytes))
		require.NoError(t, err, "failed to apply migration %s", entry.Name())
	}

	return conn
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SampleCSV is a small vocabulary sheet covering two decks, labels, and a
// row that the mapper drops.
const SampleCSV = "id,deck,lesson,article,french,english,sentence,labels,tags,pron,notes\r\n" +
	"1,Basics,1,le,chat,cat,\"Le chat dort, enfin.\",noun;animal,pet,/ʃa/,\r\n" +
	"2,Basics,1,le,chien,dog,Le chien aboie.,noun|animal,pet,/ʃjɛ̃/,\r\n" +
	"3,Basics,2,,manger,to eat,Je mange.,verb,,/mɑ̃ʒe/,regular -er\r\n" +
	"4,Travel,1,la,gare,station,La gare est loin.,\"noun, cognate\",,/ɡaʁ/,\r\n" +
	"5,Travel,2,,,,orphan sentence,,,,\r\n"

// SampleCards are the cards SampleCSV maps to, in order.
func SampleCards() []models.Card {
	return []models.Card{
		{ID: "1", Deck: "Basics", Lesson: "1", Article: "le", French: "chat", English: "cat", Sentence: "Le chat dort, enfin.", Labels: "noun;animal", Tags: "pet", Pron: "/ʃa/"},
		{ID: "2", Deck: "Basics", Lesson: "1", Article: "le", French: "chien", English: "dog", Sentence: "Le chien aboie.", Labels: "noun|animal", Tags: "pet", Pron: "/ʃjɛ̃/"},
		{ID: "3", Deck: "Basics", Lesson: "2", French: "manger", English: "to eat", Sentence: "Je mange.", Labels: "verb", Pron: "/mɑ̃ʒe/", Notes: "regular -er"},
		{ID: "4", Deck: "Travel", Lesson: "1", Article: "la", French: "gare", English: "station", Sentence: "La gare est loin.", Labels: "noun, cognate", Pron: "/ɡaʁ/"},
	}
}
