package source

import "context"

// Fetcher retrieves the raw text of a card source.
// When bust is set the request must bypass intermediate caches.
type Fetcher interface {
	Fetch(ctx context.Context, url string, bust bool) (string, error)
}

// Ensure Client implements the interface
var _ Fetcher = (*Client)(nil)
