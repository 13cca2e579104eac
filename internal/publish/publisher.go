// Package publish hands built feeds to the output collaborators: a JSON
// document written to the local filesystem or to an S3 compatible bucket.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, doc *Document) error
}

// Document is the serialised form of one filtered feed.
type Document struct {
	FeedID      int64     `json:"feed_id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	BuiltAt     time.Time `json:"built_at"`
	Articles    []Item    `json:"articles"`
}

type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
}

// NewDocument builds the document for feed from the visible articles, in
// the order given.
func NewDocument(feed *models.Feed, description string, visible []models.Article, builtAt time.Time) *Document {
	doc := &Document{
		FeedID:      feed.ID,
		Title:       feed.Name + " - (Filtered)",
		Link:        feed.URL,
		Description: description,
		BuiltAt:     builtAt.UTC(),
		Articles:    make([]Item, 0, len(visible)),
	}
	for _, a := range visible {
		doc.Articles = append(doc.Articles, Item{
			Title:       a.Title,
			Link:        a.Link,
			PublishedAt: a.PublishedAt.UTC(),
			Description: a.Description,
			Tags:        a.Tags,
		})
	}
	return doc
}

// Key is the object path of a feed document relative to the output root.
func Key(feedID int64) string {
	return fmt.Sprintf("feeds/%d/articles.json", feedID)
}

func encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Multi publishes to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, doc *Document) error {
	for _, p := range m {
		if err := p.Publish(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
