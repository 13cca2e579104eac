package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type fakeRepo struct {
	articles.Repository

	mu        sync.Mutex
	upserts   int
	upsertErr []error
	findRec   *models.ArticleRecord
	findErr   error
}

func (f *fakeRepo) Find(ctx context.Context, feedID int64, url string) (*models.ArticleRecord, error) {
	return f.findRec, f.findErr
}

func (f *fakeRepo) Upsert(ctx context.Context, rec *models.ArticleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if len(f.upsertErr) > 0 {
		err := f.upsertErr[0]
		f.upsertErr = f.upsertErr[1:]
		return err
	}
	rec.Version++
	return nil
}

var errLocked = &dbx.TransientError{Err: errors.New("database is locked")}

// -------- tests --------

func TestFind_NotFoundIsNil(t *testing.T) {
	s := New(&fakeRepo{findErr: common.ErrorNotFound})
	rec, err := s.Find(context.Background(), 1, "u")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFind_PropagatesErrors(t *testing.T) {
	s := New(&fakeRepo{findErr: errors.New("down")})
	_, err := s.Find(context.Background(), 1, "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find article: down")
}

func TestUpsert_RetriesTransientErrors(t *testing.T) {
	repo := &fakeRepo{upsertErr: []error{errLocked, errLocked}}
	s := New(repo, WithBackoff(time.Millisecond))

	rec := &models.ArticleRecord{FeedID: 1, URL: "u"}
	require.NoError(t, s.Upsert(context.Background(), rec))
	assert.Equal(t, 3, repo.upserts)
	assert.Equal(t, int64(1), rec.Version)
}

func TestUpsert_GivesUpAfterAttempts(t *testing.T) {
	repo := &fakeRepo{upsertErr: []error{errLocked, errLocked, errLocked, errLocked}}
	s := New(repo, WithBackoff(time.Millisecond), WithWriteAttempts(2))

	err := s.Upsert(context.Background(), &models.ArticleRecord{FeedID: 1, URL: "u"})
	assert.True(t, dbx.IsTransient(err))
	assert.Equal(t, 2, repo.upserts)
}

func TestUpsert_VersionConflictNotRetried(t *testing.T) {
	repo := &fakeRepo{upsertErr: []error{common.ErrVersionConflict}}
	s := New(repo, WithBackoff(time.Millisecond))

	err := s.Upsert(context.Background(), &models.ArticleRecord{FeedID: 1, URL: "u"})
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	assert.Equal(t, 1, repo.upserts)
}

func TestUpsert_ContextCancelledDuringBackoff(t *testing.T) {
	repo := &fakeRepo{upsertErr: []error{errLocked, errLocked}}
	s := New(repo, WithBackoff(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Upsert(ctx, &models.ArticleRecord{FeedID: 1, URL: "u"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "12|https://x/a", Key(12, "https://x/a"))
}

func openStore(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	ctx := context.Background()
	db, m, err := repomanager.Open(ctx, repomanager.DriverSQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, m.Feeds(db).Create(ctx, &models.Feed{Name: "f", URL: "u"}))
	return db, New(m.Articles(db))
}

// Concurrent writers for one key, each re-reading on conflict, leave
// exactly one row behind.
func TestUpsert_ConcurrentWritersOneRecord(t *testing.T) {
	db, s := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for attempt := 0; attempt < 20; attempt++ {
				rec, err := s.Find(ctx, 1, "https://x/a")
				if err != nil {
					errs <- err
					return
				}
				if rec == nil {
					rec = &models.ArticleRecord{FeedID: 1, URL: "https://x/a"}
				}
				rec.FullContentRetries++
				err = s.Upsert(ctx, rec)
				if errors.Is(err, common.ErrVersionConflict) {
					continue
				}
				errs <- err
				return
			}
			errs <- errors.New("attempts exhausted")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var n, retries int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*), MAX(full_content_retries) FROM articles`).Scan(&n, &retries))
	assert.Equal(t, 1, n)
	// no lost updates: every writer's increment landed
	assert.Equal(t, 8, retries)
}
