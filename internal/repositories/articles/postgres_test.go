package articles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pgCols = []string{
	"id", "feed_id", "url", "title", "published_at", "created_at", "updated_at", "extractor_id",
	"description", "tags", "full_content_fetched", "full_content_retries", "hidden", "hidden_at",
	"hidden_keywords", "version",
}

var upsertRe = regexp.MustCompile(`INSERT INTO articles .* ON CONFLICT \(feed_id, url\)\s+DO UPDATE SET .* WHERE articles\.version = \$16;`)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	r := NewPostgresRepository(db)
	r.now = fixedClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return r, mock, db
}

func TestPostgres_Upsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(upsertRe.String()).
		WithArgs(
			"id-1", int64(4), "https://x/a", "T", pub, now, now,
			"none", "<p>d</p>", `["a"]`, false, 0,
			false, sql.NullTime{}, `[]`, int64(0),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &models.ArticleRecord{
		ID: "id-1", FeedID: 4, URL: "https://x/a", Title: "T", PublishedAt: pub,
		ExtractorID: "none", Description: "<p>d</p>", Tags: []string{"a"},
	}
	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, now, rec.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Upsert_VersionConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertRe.String()).WillReturnResult(sqlmock.NewResult(0, 0))

	rec := &models.ArticleRecord{ID: "id", FeedID: 1, URL: "u", Version: 3}
	err := repo.Upsert(context.Background(), rec)
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	assert.Equal(t, int64(3), rec.Version)
}

func TestPostgres_Upsert_TransientError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertRe.String()).WillReturnError(&pgconn.PgError{Code: "40001"})

	err := repo.Upsert(context.Background(), &models.ArticleRecord{ID: "id", FeedID: 1, URL: "u"})
	require.Error(t, err)
	assert.True(t, dbx.IsTransient(err))
	assert.True(t, common.IsRetryable(err))
}

func TestPostgres_Upsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertRe.String()).WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), &models.ArticleRecord{ID: "id", FeedID: 1, URL: "u"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db is down`, err.Error())
	assert.False(t, dbx.IsTransient(err))
}

func TestPostgres_Upsert_UnexpectedRowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertRe.String()).WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.Upsert(context.Background(), &models.ArticleRecord{ID: "id", FeedID: 1, URL: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected rows affected: 2")
}

func TestPostgres_Upsert_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertRe.String()).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := repo.Upsert(context.Background(), &models.ArticleRecord{ID: "id", FeedID: 1, URL: "u"})
	require.Error(t, err)
	assert.Regexp(t, `rows affected error: .*rows-err`, err.Error())
}

func TestPostgres_Find(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(pgCols).AddRow(
		"id-1", int64(1), "u", "T", ts, ts, ts, "readability",
		"<p>x</p>", []byte(`["a","b"]`), true, 2, true, ts, []byte(`["cat"]`), int64(5),
	)
	mock.ExpectQuery(`SELECT .* FROM articles WHERE feed_id = \$1 AND url = \$2`).
		WithArgs(int64(1), "u").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), 1, "u")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, got.FullContentFetched)
	assert.Equal(t, 2, got.FullContentRetries)
	require.NotNil(t, got.HiddenAt)
	assert.Equal(t, ts, *got.HiddenAt)
	assert.Equal(t, []string{"cat"}, got.HiddenKeywords)
	assert.Equal(t, int64(5), got.Version)
}

func TestPostgres_Find_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM articles WHERE feed_id = \$1 AND url = \$2`).
		WithArgs(int64(1), "u").
		WillReturnRows(sqlmock.NewRows(pgCols))

	_, err := repo.Find(context.Background(), 1, "u")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_ListByFeed_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(pgCols).
		AddRow("a", int64(1), "u1", "", ts, ts, ts, "none", "", []byte(`[]`), false, 0, false, nil, []byte(`[]`), int64(1)).
		AddRow("b", int64(1), "u2", "", ts, ts, ts, "none", "", []byte(`[]`), false, 0, false, nil, []byte(`[]`), int64(1)).
		RowError(1, errors.New("row-err"))

	mock.ExpectQuery(`SELECT .* FROM articles WHERE feed_id = \$1 ORDER BY published_at DESC, url`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	_, err := repo.ListByFeed(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "row-err", err.Error())
}

func TestPostgres_ListHiddenSince_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM articles\s+WHERE feed_id = \$1 AND hidden AND hidden_at >= \$2`).
		WithArgs(int64(1), since).
		WillReturnError(errors.New("db err"))

	_, err := repo.ListHiddenSince(context.Background(), 1, since)
	require.Error(t, err)
	assert.Regexp(t, `failed to select articles: .*db err`, err.Error())
}

func TestPostgres_DeleteCreatedBefore(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM articles WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteCreatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
