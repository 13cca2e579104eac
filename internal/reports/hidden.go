// Package reports lists articles hidden by filter rules.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/feeds"
)

const DefaultWindow = 24 * time.Hour

type FeedHidden struct {
	Feed     *models.Feed
	Articles []*models.ArticleRecord
}

type HiddenReport struct {
	Since time.Time
	Feeds []FeedHidden
	Total int
}

type Hidden struct {
	feeds    feeds.Repository
	articles articles.Repository
	now      func() time.Time
}

func NewHidden(f feeds.Repository, a articles.Repository) *Hidden {
	return &Hidden{feeds: f, articles: a, now: time.Now}
}

// Build collects records hidden within window. A non-zero feedID restricts
// the report to that feed; otherwise feeds flagged for reporting come first,
// then the rest by name. Feeds without hidden articles are left out.
func (h *Hidden) Build(ctx context.Context, window time.Duration, feedID int64) (*HiddenReport, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	var list []*models.Feed
	if feedID != 0 {
		f, err := h.feeds.GetByID(ctx, feedID)
		if err != nil {
			return nil, fmt.Errorf("load feed %d: %w", feedID, err)
		}
		list = []*models.Feed{f}
	} else {
		var err error
		if list, err = h.feeds.ListForReport(ctx); err != nil {
			return nil, fmt.Errorf("list feeds: %w", err)
		}
	}

	rep := &HiddenReport{Since: h.now().UTC().Add(-window)}
	for _, f := range list {
		recs, err := h.articles.ListHiddenSince(ctx, f.ID, rep.Since)
		if err != nil {
			return nil, fmt.Errorf("hidden articles of feed %d: %w", f.ID, err)
		}
		if len(recs) == 0 {
			continue
		}
		rep.Feeds = append(rep.Feeds, FeedHidden{Feed: f, Articles: recs})
		rep.Total += len(recs)
	}
	return rep, nil
}
