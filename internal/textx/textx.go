// Package textx holds the text helpers shared by reconciliation and
// filtering: HTML sanitisation, tag stripping and keyword normalisation.
package textx

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)
	spaces   = regexp.MustCompile(`\s+`)
)

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy

	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// articlePolicy is the safe tag subset kept in article bodies. It extends the
// user-generated-content policy with the embedded video iframes extractors
// emit.
func articlePolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("iframe", "figure", "figcaption")
		p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://(www\.)?(youtube\.com|youtube-nocookie\.com|player\.vimeo\.com)/`)).OnElements("iframe")
		p.AllowAttrs("width", "height", "frameborder", "allowfullscreen").OnElements("iframe")
		p.RequireParseableURLs(true)
		ugcPolicy = p
	})
	return ugcPolicy
}

func stripPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// SanitizeHTML reduces s to the safe tag subset used for article bodies.
func SanitizeHTML(s string) string {
	if s == "" {
		return ""
	}
	return articlePolicy().Sanitize(s)
}

// StripTags removes all markup and unescapes entities.
func StripTags(s string) string {
	return html.UnescapeString(stripPolicy().Sanitize(html.UnescapeString(s)))
}

// Normalize prepares text for whole-word keyword matching: entities are
// unescaped, markup stripped, every run of non alphanumeric characters
// becomes a single space and the result is lower case and trimmed.
func Normalize(s string) string {
	s = StripTags(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// ContainsWord reports whether the normalised word occurs in the normalised
// text bounded by spaces. Both arguments must already be normalised. An
// empty word never matches.
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+word+" ")
}

// TruncateAt cuts s at the first occurrence of marker. An empty marker
// leaves s unchanged.
func TruncateAt(s, marker string) string {
	if marker == "" {
		return s
	}
	if i := strings.Index(s, marker); i >= 0 {
		return s[:i]
	}
	return s
}

// RemoveAll deletes every case-insensitive occurrence of each literal in
// items from s.
func RemoveAll(s string, items []string) string {
	for _, it := range items {
		if it == "" {
			continue
		}
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(it))
		s = re.ReplaceAllString(s, "")
	}
	return s
}
