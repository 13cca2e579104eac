// Package build runs the reconciliation and filter engines over the entries
// of one feed.
//
// Entries are processed by a bounded worker pool. Store lookups run freely
// in parallel; writes go through the store's per-key serialised upsert and
// an entry that loses a write race is re-read and reconciled again. Results
// are buffered per entry and returned in the original entry order.
package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/filtering"
	"github.com/dmitrijs2005/feedfilter/internal/logging"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/reconcile"
	"golang.org/x/sync/errgroup"
)

// Store is the record store seen by the orchestrator.
type Store interface {
	Find(ctx context.Context, feedID int64, url string) (*models.ArticleRecord, error)
	Upsert(ctx context.Context, rec *models.ArticleRecord) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, in reconcile.Input) (models.Article, error)
}

// Result is the outcome of one feed build.
type Result struct {
	// Articles holds every built article in entry order.
	Articles []models.Article
	Visible  []models.Article
	Hidden   []models.Article
	Errors   []EntryError
}

type Orchestrator struct {
	store  Store
	engine Reconciler
	now    func() time.Time
	logger logging.Logger
}

func NewOrchestrator(store Store, engine Reconciler, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{store: store, engine: engine, now: time.Now, logger: logger}
}

type entryResult struct {
	article *models.Article
	err     *EntryError
}

// Build processes the admitted entries of feed. It always returns the
// articles that completed together with every entry failure.
func (o *Orchestrator) Build(ctx context.Context, feed *models.Feed, entries []models.Entry, rules []models.FilterRule, opts Options) *Result {
	var admitted []models.Entry
	for _, e := range entries {
		if opts.Admit(e) {
			admitted = append(admitted, e)
		}
	}

	results := make([]entryResult, len(admitted))

	var g errgroup.Group
	g.SetLimit(opts.concurrency())
	for i, e := range admitted {
		g.Go(func() error {
			results[i] = o.runEntry(ctx, feed, e, rules, opts)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{}
	for _, r := range results {
		if r.err != nil {
			res.Errors = append(res.Errors, *r.err)
		}
		if r.article == nil {
			continue
		}
		res.Articles = append(res.Articles, *r.article)
		if r.article.Hidden {
			res.Hidden = append(res.Hidden, *r.article)
		} else {
			res.Visible = append(res.Visible, *r.article)
		}
	}
	return res
}

// runEntry isolates one entry: panics and errors become an EntryError.
func (o *Orchestrator) runEntry(ctx context.Context, feed *models.Feed, e models.Entry, rules []models.FilterRule, opts Options) (res entryResult) {
	defer func() {
		if p := recover(); p != nil {
			ee := newEntryError(e.Index, e.Link, e.Title, fmt.Errorf("panic: %v", p))
			res = entryResult{err: &ee}
		}
	}()

	a, err := o.buildEntry(ctx, feed, e, rules, opts)
	if err != nil {
		ee := newEntryError(e.Index, e.Link, e.Title, err)
		res.err = &ee
	}
	res.article = a
	return res
}

// buildEntry reconciles, filters and stores one entry. A non-nil article
// may come with a non-fatal error such as a failed extraction.
func (o *Orchestrator) buildEntry(ctx context.Context, feed *models.Feed, e models.Entry, rules []models.FilterRule, opts Options) (*models.Article, error) {
	attempts := opts.upsertAttempts()
	e.Link = strings.TrimSpace(e.Link)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		existing, err := o.store.Find(ctx, feed.ID, e.Link)
		if err != nil {
			return nil, err
		}

		a, recErr := o.engine.Reconcile(ctx, reconcile.Input{Feed: feed, Entry: e, Existing: existing, Force: opts.Force})
		if errors.Is(recErr, common.ErrMalformedEntry) {
			return nil, recErr
		}

		a.Apply(filtering.Evaluate(filtering.TargetOf(&a), rules, o.now().UTC()))

		rec := a.Record()
		err = o.store.Upsert(ctx, rec)
		if errors.Is(err, common.ErrVersionConflict) {
			if attempt < attempts {
				o.logger.Debug(ctx, "write race lost, reconciling again", "entry", e.Index, "url", e.Link, "attempt", attempt)
				continue
			}
			return nil, fmt.Errorf("%w: %s after %d attempts", common.ErrDuplicateKeyConflict, e.Link, attempt)
		}
		if err != nil {
			return nil, fmt.Errorf("store article: %w", err)
		}

		a.RecordID = rec.ID
		a.Version = rec.Version
		return &a, recErr
	}
}
