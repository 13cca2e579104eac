// Package reconcile merges a feed entry, its stored record and an optional
// full-content extraction into one canonical article.
//
// The engine decides whether extraction is needed, enforces the retry
// ceiling for failing sources and sanitises the result. It never writes to
// the store; persisting the article is the caller's job.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/logging"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/textx"
)

const (
	// MaxRetries is the number of failed extractions after which a record is
	// treated as permanently degraded.
	MaxRetries = 10

	defaultExtractTimeout = 30 * time.Second
)

// Extractor runs the extractor identified by id for url.
type Extractor interface {
	Extract(ctx context.Context, url, id string) (*models.Extraction, error)
}

// idResolver is implemented by extractor sets that map unknown ids onto
// the default extractor.
type idResolver interface {
	ResolveID(id string) string
}

type Engine struct {
	extractor Extractor
	timeout   time.Duration
	now       func() time.Time
	logger    logging.Logger
}

type Option func(*Engine)

// WithExtractTimeout bounds each extraction call.
func WithExtractTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(x Extractor, opts ...Option) *Engine {
	e := &Engine{
		extractor: x,
		timeout:   defaultExtractTimeout,
		now:       time.Now,
		logger:    logging.Discard(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Input is one entry to reconcile.
type Input struct {
	Feed     *models.Feed
	Entry    models.Entry
	Existing *models.ArticleRecord
	Force    bool
}

// Reconcile produces the article for in. The returned article is always
// usable when the error is nil or wraps common.ErrExtractionFailed or
// common.ErrEmptyExtraction; such errors only report that feed-supplied
// content was used instead of the full article. An entry without a link
// yields common.ErrMalformedEntry and no article.
func (e *Engine) Reconcile(ctx context.Context, in Input) (models.Article, error) {
	link := strings.TrimSpace(in.Entry.Link)
	if link == "" {
		return models.Article{}, fmt.Errorf("%w: entry %d has no link", common.ErrMalformedEntry, in.Entry.Index)
	}
	feed := in.Feed
	rec := in.Existing
	xid := e.extractorID(feed)

	var (
		a      models.Article
		extErr error
	)

	if rec != nil && !rec.Hidden && !in.Force && rec.ExtractorID == xid {
		a = Merge(rec, nil, nil)
	} else {
		src := SourceOf(in.Entry)
		src.Link = link
		a = Merge(rec, &src, nil)

		if rec == nil {
			a.ExtractorID = models.NoExtractorID
		}
		if in.Force {
			a.FullContentRetries = 0
		}

		if xid != models.NoExtractorID {
			a, extErr = e.extract(ctx, xid, rec, src, a)
		} else {
			a.ExtractorID = models.NoExtractorID
			a.FullContentFetched = false
		}
	}

	a.Index = in.Entry.Index
	a.FeedID = feed.ID
	a.Link = link
	if a.PublishedAt.IsZero() {
		a.PublishedAt = e.now().UTC()
	}
	Sanitize(&a, feed)
	return a, extErr
}

// extractorID is the id of the extractor that will actually run for feed.
// Ids the extractor set does not know resolve to models.NoExtractorID.
func (e *Engine) extractorID(feed *models.Feed) string {
	if r, ok := e.extractor.(idResolver); ok {
		return r.ResolveID(feed.Extractor())
	}
	return feed.Extractor()
}

// extract applies the retry policy around one extraction attempt.
func (e *Engine) extract(ctx context.Context, xid string, rec *models.ArticleRecord, src Source, a models.Article) (models.Article, error) {
	if a.FullContentRetries > MaxRetries {
		e.logger.Debug(ctx, "retry ceiling reached, extraction skipped", "url", a.Link, "retries", a.FullContentRetries)
		a.FullContentFetched = false
		return a, nil
	}

	xctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ext, err := e.extractor.Extract(xctx, a.Link, xid)
	if err == nil && ext.IsEmpty() {
		err = common.ErrEmptyExtraction
	}
	if err != nil {
		a.FullContentRetries++
		a.FullContentFetched = false
		if rec != nil {
			a.ExtractorID = rec.ExtractorID
		}
		if xctx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", common.ErrExtractionFailed, xctx.Err())
		}
		return a, err
	}

	out := Merge(rec, &src, ext)
	out.FullContentRetries = a.FullContentRetries
	out.FullContentFetched = true
	out.ExtractorID = xid
	return out, nil
}

// Sanitize applies the feed's stop marker and removal list and reduces the
// description to safe HTML.
func Sanitize(a *models.Article, feed *models.Feed) {
	a.Description = textx.TruncateAt(a.Description, feed.StopMarker)
	if len(feed.RemoveText) > 0 {
		a.Description = textx.RemoveAll(a.Description, feed.RemoveText)
		a.Title = strings.TrimSpace(textx.RemoveAll(a.Title, feed.RemoveText))
	}
	a.Description = textx.SanitizeHTML(a.Description)
}
