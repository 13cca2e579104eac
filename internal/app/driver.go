package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/build"
	"github.com/dmitrijs2005/feedfilter/internal/logging"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/publish"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/feeds"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/filters"
	"github.com/dmitrijs2005/feedfilter/internal/source"
	"github.com/google/uuid"
)

type FeedSource interface {
	Parse(ctx context.Context, url string) (*source.Parsed, error)
}

type Builder interface {
	Build(ctx context.Context, feed *models.Feed, entries []models.Entry, rules []models.FilterRule, opts build.Options) *build.Result
}

// FeedResult is the outcome of one feed inside BuildAll.
type FeedResult struct {
	FeedID  int64
	Name    string
	BuildID string
	Result  *build.Result
	Err     error
}

// Driver runs feed builds end to end: source fetch, redirect bookkeeping,
// orchestration and publishing of the visible articles.
type Driver struct {
	feeds     feeds.Repository
	filters   filters.Repository
	source    FeedSource
	builder   Builder
	publisher publish.Publisher
	logger    logging.Logger
	now       func() time.Time
}

// NewDriver wires a driver. A nil publisher disables output.
func NewDriver(f feeds.Repository, r filters.Repository, src FeedSource, b Builder, p publish.Publisher, logger logging.Logger) *Driver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Driver{
		feeds:     f,
		filters:   r,
		source:    src,
		builder:   b,
		publisher: p,
		logger:    logger.With("module", "driver"),
		now:       time.Now,
	}
}

// BuildFeed builds one feed by id. Entry failures are reported in the
// result; a returned error means the feed itself could not be built or its
// output could not be published. Nothing is published when the source is
// unavailable.
func (d *Driver) BuildFeed(ctx context.Context, feedID int64, opts build.Options) (*build.Result, error) {
	feed, err := d.feeds.GetByID(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("load feed %d: %w", feedID, err)
	}
	return d.buildFeed(ctx, feed, uuid.NewString(), opts)
}

func (d *Driver) buildFeed(ctx context.Context, feed *models.Feed, buildID string, opts build.Options) (*build.Result, error) {
	log := d.logger.With("feed_id", feed.ID, "build_id", buildID)
	started := d.now()

	rules, err := d.filters.ListByFeed(ctx, feed.ID)
	if err != nil {
		return nil, fmt.Errorf("load filter rules: %w", err)
	}

	parsed, err := d.source.Parse(ctx, feed.URL)
	if err != nil {
		log.Error(ctx, "feed source unavailable", "url", feed.URL, "err", err)
		return nil, err
	}

	if parsed.Redirected() && parsed.Href != "" && parsed.Href != feed.URL {
		if err := d.feeds.UpdateURL(ctx, feed.ID, parsed.Href); err != nil {
			return nil, fmt.Errorf("store redirected url: %w", err)
		}
		log.Info(ctx, "feed moved", "status", parsed.Status, "from", feed.URL, "to", parsed.Href)
		feed.URL = parsed.Href
	}

	res := d.builder.Build(ctx, feed, parsed.Entries, rules, opts)
	for _, e := range res.Errors {
		log.Warn(ctx, "entry failed", "entry", e.Index, "url", e.Link, "retryable", e.Retryable, "err", e.Err)
	}

	if d.publisher != nil {
		doc := publish.NewDocument(feed, parsed.Description, res.Visible, d.now())
		if err := d.publisher.Publish(ctx, doc); err != nil {
			return res, fmt.Errorf("publish feed %d: %w", feed.ID, err)
		}
	}

	log.Info(ctx, "feed built",
		"entries", len(parsed.Entries),
		"visible", len(res.Visible),
		"hidden", len(res.Hidden),
		"errors", len(res.Errors),
		"elapsed", d.now().Sub(started).String(),
	)
	return res, nil
}

// BuildAll builds every feed in id order, one at a time. A feed that fails
// is recorded in its FeedResult and the loop moves on. The returned error is
// set only when the feed list cannot be loaded or ctx is cancelled.
func (d *Driver) BuildAll(ctx context.Context, opts build.Options) ([]FeedResult, error) {
	list, err := d.feeds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}

	out := make([]FeedResult, 0, len(list))
	for i, f := range list {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		fr := FeedResult{FeedID: f.ID, Name: f.Name, BuildID: uuid.NewString()}
		fr.Result, fr.Err = d.buildFeed(ctx, f, fr.BuildID, opts)
		if fr.Err != nil {
			d.logger.Error(ctx, "feed build failed", "feed_id", f.ID, "position", i+1, "of", len(list), "err", fr.Err)
		}
		out = append(out, fr)
	}
	return out, nil
}

// Failed returns the results whose feed-level build failed.
func Failed(results []FeedResult) []FeedResult {
	var out []FeedResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
