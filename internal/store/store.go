// Package store is the record-store boundary used by the build pipeline.
//
// Writes for the same (feed, url) key are serialised in process by a
// KeyLock and guarded across processes by the repository's optimistic
// version check. Transient database errors (lock contention, serialization
// failures) are retried a bounded number of times with linear backoff.
// Version conflicts are returned to the caller, which is expected to re-read
// the record and reconcile again.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/logging"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
)

const (
	defaultWriteAttempts = 5
	defaultBackoff       = 50 * time.Millisecond
)

type Store struct {
	repo     articles.Repository
	locks    *KeyLock
	logger   logging.Logger
	attempts int
	backoff  time.Duration
}

type Option func(*Store)

// WithWriteAttempts bounds how often a transient write failure is retried.
func WithWriteAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(s *Store) { s.backoff = d }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(repo articles.Repository, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		locks:    NewKeyLock(),
		logger:   logging.Discard(),
		attempts: defaultWriteAttempts,
		backoff:  defaultBackoff,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Find returns the stored record for (feedID, url), or nil when there is none.
func (s *Store) Find(ctx context.Context, feedID int64, url string) (*models.ArticleRecord, error) {
	rec, err := s.repo.Find(ctx, feedID, url)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}
	return rec, nil
}

// Upsert writes rec while holding the lock for its key. A stale rec.Version
// yields common.ErrVersionConflict without retrying.
func (s *Store) Upsert(ctx context.Context, rec *models.ArticleRecord) error {
	unlock, err := s.locks.Lock(ctx, Key(rec.FeedID, rec.URL))
	if err != nil {
		return fmt.Errorf("lock article: %w", err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		err = s.repo.Upsert(ctx, rec)
		if err == nil || !dbx.IsTransient(err) || attempt >= s.attempts {
			return err
		}

		s.logger.Debug(ctx, "transient store error, retrying", "url", rec.URL, "attempt", attempt, "err", err)
		select {
		case <-time.After(s.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Store) ListByFeed(ctx context.Context, feedID int64) ([]*models.ArticleRecord, error) {
	return s.repo.ListByFeed(ctx, feedID)
}

// Key identifies one article record.
func Key(feedID int64, url string) string {
	return strconv.FormatInt(feedID, 10) + "|" + url
}
