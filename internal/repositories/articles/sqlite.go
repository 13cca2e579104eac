package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

const sqliteColumns = `id, feed_id, url, title, published_at, created_at, updated_at, extractor_id,
	description, tags, full_content_fetched, full_content_retries, hidden, hidden_at, hidden_keywords, version`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Find(ctx context.Context, feedID int64, url string) (*models.ArticleRecord, error) {
	query := `SELECT ` + sqliteColumns + ` FROM articles WHERE feed_id = ? AND url = ?`
	rec, err := scanSQLite(r.db.QueryRowContext(ctx, query, feedID, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

// Upsert writes rec under the optimistic version check described in the
// package documentation.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.ArticleRecord) error {
	now := r.now().UTC()
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = now
	}

	tags, err := encodeList(rec.Tags)
	if err != nil {
		return err
	}
	keywords, err := encodeList(rec.HiddenKeywords)
	if err != nil {
		return err
	}
	var hiddenAt sql.NullString
	if rec.HiddenAt != nil {
		hiddenAt = sql.NullString{String: formatTime(*rec.HiddenAt), Valid: true}
	}

	query := `INSERT INTO articles (` + sqliteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (feed_id, url) DO UPDATE SET
			title = excluded.title,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at,
			extractor_id = excluded.extractor_id,
			description = excluded.description,
			tags = excluded.tags,
			full_content_fetched = excluded.full_content_fetched,
			full_content_retries = excluded.full_content_retries,
			hidden = excluded.hidden,
			hidden_at = excluded.hidden_at,
			hidden_keywords = excluded.hidden_keywords,
			version = articles.version + 1
		WHERE articles.version = ?`

	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.FeedID, rec.URL, rec.Title, formatTime(rec.PublishedAt), formatTime(rec.CreatedAt),
		formatTime(now), rec.ExtractorID, rec.Description, tags, rec.FullContentFetched,
		rec.FullContentRetries, rec.Hidden, hiddenAt, keywords,
		rec.Version,
	)
	if err != nil {
		if dbx.IsTransient(err) {
			return &dbx.TransientError{Err: err}
		}
		return fmt.Errorf("db error: %w", err)
	}
	if err := checkUpsert(res); err != nil {
		return err
	}

	rec.Version++
	rec.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) ListByFeed(ctx context.Context, feedID int64) ([]*models.ArticleRecord, error) {
	query := `SELECT ` + sqliteColumns + ` FROM articles WHERE feed_id = ? ORDER BY published_at DESC, url`
	return r.list(ctx, query, feedID)
}

func (r *SQLiteRepository) ListHiddenSince(ctx context.Context, feedID int64, since time.Time) ([]*models.ArticleRecord, error) {
	query := `SELECT ` + sqliteColumns + ` FROM articles
		WHERE feed_id = ? AND hidden = 1 AND hidden_at >= ? ORDER BY hidden_at DESC, url`
	return r.list(ctx, query, feedID, formatTime(since))
}

func (r *SQLiteRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.ArticleRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	defer rows.Close()

	var result []*models.ArticleRecord
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s scanner) (*models.ArticleRecord, error) {
	var rec models.ArticleRecord
	var published, created, updated, tags, keywords string
	var hiddenAt sql.NullString
	if err := s.Scan(&rec.ID, &rec.FeedID, &rec.URL, &rec.Title, &published, &created, &updated,
		&rec.ExtractorID, &rec.Description, &tags, &rec.FullContentFetched, &rec.FullContentRetries,
		&rec.Hidden, &hiddenAt, &keywords, &rec.Version); err != nil {
		return nil, err
	}

	var err error
	if rec.PublishedAt, err = parseTime(published); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if hiddenAt.Valid {
		t, err := parseTime(hiddenAt.String)
		if err != nil {
			return nil, err
		}
		rec.HiddenAt = &t
	}
	if rec.Tags, err = decodeList([]byte(tags)); err != nil {
		return nil, err
	}
	if rec.HiddenKeywords, err = decodeList([]byte(keywords)); err != nil {
		return nil, err
	}
	return &rec, nil
}
