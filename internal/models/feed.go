// Package models defines the domain types shared by the store, the build
// pipeline and the driver.
package models

import "strings"

// NoExtractorID is the default extractor: feed-supplied content only.
const NoExtractorID = "none"

// Feed is a named remote syndication source and its per-feed build settings.
type Feed struct {
	ID   int64
	Name string
	URL  string

	// ExtractorID selects the full-content extractor; empty means NoExtractorID.
	ExtractorID string
	Folder      string

	// RemoveText lists substrings removed (case-insensitively) from titles
	// and descriptions.
	RemoveText []string
	// StopMarker truncates descriptions at its first occurrence.
	StopMarker string

	// ReportHidden puts the feed first in hidden-article reports.
	ReportHidden bool
}

// Extractor returns the configured extractor id, defaulting to NoExtractorID.
func (f *Feed) Extractor() string {
	if f.ExtractorID == "" {
		return NoExtractorID
	}
	return f.ExtractorID
}

// UsesExtractor reports whether the feed fetches full article content.
func (f *Feed) UsesExtractor() bool {
	return f.Extractor() != NoExtractorID
}

// ParseRemoveText splits a comma separated list, trimming blanks and
// dropping empty items.
func ParseRemoveText(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinRemoveText is the inverse of ParseRemoveText.
func JoinRemoveText(items []string) string {
	return strings.Join(items, ",")
}
