package reconcile

import (
	"html"
	"strings"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

const (
	contentSeparator = "<br /><p><b>Feed content</b><br />"
	emptyDescription = "<p><b>Note:</b> the feed supplied no description for this article</p>"
)

// Source is the layer contributed by the feed document.
type Source struct {
	Link        string
	Title       string
	PublishedAt time.Time
	Description string
	Tags        []string
}

// SourceOf builds the source layer of an entry. Description and content are
// joined when the feed supplies both.
func SourceOf(e models.Entry) Source {
	desc := e.Description
	switch {
	case strings.TrimSpace(e.Content) != "":
		desc = e.Description + contentSeparator + e.Content
	case strings.TrimSpace(desc) == "":
		desc = emptyDescription
	}
	return Source{
		Link:        e.Link,
		Title:       e.Title,
		PublishedAt: e.PublishedAt,
		Description: desc,
		Tags:        append([]string(nil), e.Tags...),
	}
}

// Merge layers the stored record, the source and the extraction, each
// overriding the previous one: extractor > source > record. Any layer may be
// nil. Tags from the extraction are appended to the source tags.
func Merge(record *models.ArticleRecord, src *Source, ext *models.Extraction) models.Article {
	var a models.Article
	if record != nil {
		a = models.FromRecord(record)
	}

	if src != nil {
		a.Link = src.Link
		a.Title = src.Title
		if !src.PublishedAt.IsZero() {
			a.PublishedAt = src.PublishedAt
		}
		a.Description = src.Description
		a.Tags = append([]string(nil), src.Tags...)
	}

	if ext != nil && !ext.IsEmpty() {
		if t := strings.TrimSpace(ext.Title); t != "" {
			a.Title = t
		}
		a.Description = ExtractionBody(ext)
		a.Tags = append(a.Tags, ext.Tags...)
	}
	return a
}

// ExtractionBody renders an extraction as article HTML: top image, body,
// embedded videos and, when there is more than one, the image gallery.
func ExtractionBody(ext *models.Extraction) string {
	var b strings.Builder
	if ext.TopImage != "" {
		b.WriteString(`<img src="` + html.EscapeString(ext.TopImage) + `" /><br /><br />`)
	}
	b.WriteString(ext.HTML)
	for _, src := range ext.Media {
		b.WriteString(`<p class="youtube"><iframe width="560" height="315" src="` +
			html.EscapeString(src) + `" frameborder="0" allowfullscreen></iframe></p>`)
	}
	if len(ext.Images) > 1 {
		for _, src := range ext.Images {
			s := html.EscapeString(src)
			b.WriteString(`<p><a href="` + s + `"><img src="` + s + `" /></a></p>`)
		}
	}
	return b.String()
}
