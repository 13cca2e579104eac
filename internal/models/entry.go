package models

import "time"

// Entry is one item parsed from a feed document during a single fetch.
type Entry struct {
	// Index is the 1-based position of the entry in the source document.
	Index int

	Link        string
	Title       string
	PublishedAt time.Time
	Tags        []string

	// Description and Content are raw, unsanitised feed HTML.
	Description string
	Content     string
}
