package models

import "strings"

// Extraction is the result of fetching full content for one article URL.
type Extraction struct {
	Title    string   `json:"title,omitempty"`
	HTML     string   `json:"html"`
	Tags     []string `json:"tags,omitempty"`
	TopImage string   `json:"top_image,omitempty"`

	// Media holds embeddable video sources rendered as iframes.
	Media []string `json:"media,omitempty"`
	// Images holds additional gallery images.
	Images []string `json:"images,omitempty"`
}

// IsEmpty reports whether the extractor produced no article body.
func (e *Extraction) IsEmpty() bool {
	return e == nil || strings.TrimSpace(e.HTML) == ""
}
