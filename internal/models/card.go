package models

// Card is one vocabulary entry loaded from a CSV source.
type Card struct {
	ID       string `json:"id"`
	Deck     string `json:"deck"`
	Lesson   string `json:"lesson"`
	Article  string `json:"article"`
	French   string `json:"french"`
	English  string `json:"english"`
	Sentence string `json:"sentence"`
	Pron     string `json:"pron"`
	Tags     string `json:"tags"`
	Notes    string `json:"notes"`
	Labels   string `json:"labels"`
}

// Facets lists the distinct values offered by the filter menus.
type Facets struct {
	Decks   []string `json:"decks"`
	Lessons []string `json:"lessons"`
	Labels  []string `json:"labels"`
}
