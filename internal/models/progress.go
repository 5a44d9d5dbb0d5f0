package models

// ProgressEntry is the Leitner scheduling state of a single card.
type ProgressEntry struct {
	Box int    `json:"box"`
	Due string `json:"due"` // YYYY-MM-DD
}

// ProgressBook maps Card.ID to its scheduling state for one source.
type ProgressBook map[string]ProgressEntry

// Ensure returns the entry for id, inserting {box:1, due:today} when absent.
func (b ProgressBook) Ensure(id, today string) ProgressEntry {
	if e, ok := b[id]; ok {
		return e
	}
	e := ProgressEntry{Box: 1, Due: today}
	b[id] = e
	return e
}

// Clone returns a shallow copy of the book.
func (b ProgressBook) Clone() ProgressBook {
	out := make(ProgressBook, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
