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

const pgColumns = `id, feed_id, url, title, published_at, created_at, updated_at, extractor_id,
	description, tags, full_content_fetched, full_content_retries, hidden, hidden_at, hidden_keywords, version`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Find(ctx context.Context, feedID int64, url string) (*models.ArticleRecord, error) {
	query := `SELECT ` + pgColumns + ` FROM articles WHERE feed_id = $1 AND url = $2`
	rec, err := scanPostgres(r.db.QueryRowContext(ctx, query, feedID, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

// Upsert inserts the record or replaces the stored row when its version
// matches rec.Version. Returns common.ErrVersionConflict otherwise.
func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.ArticleRecord) error {
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
	var hiddenAt sql.NullTime
	if rec.HiddenAt != nil {
		hiddenAt = sql.NullTime{Time: rec.HiddenAt.UTC(), Valid: true}
	}

	query := `
		INSERT INTO articles (` + pgColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1)
		ON CONFLICT (feed_id, url)
		DO UPDATE SET
			title = EXCLUDED.title,
			published_at = EXCLUDED.published_at,
			updated_at = EXCLUDED.updated_at,
			extractor_id = EXCLUDED.extractor_id,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			full_content_fetched = EXCLUDED.full_content_fetched,
			full_content_retries = EXCLUDED.full_content_retries,
			hidden = EXCLUDED.hidden,
			hidden_at = EXCLUDED.hidden_at,
			hidden_keywords = EXCLUDED.hidden_keywords,
			version = articles.version + 1
			WHERE articles.version = $16;
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.FeedID, rec.URL, rec.Title, rec.PublishedAt.UTC(), rec.CreatedAt.UTC(), now,
		rec.ExtractorID, rec.Description, tags, rec.FullContentFetched, rec.FullContentRetries,
		rec.Hidden, hiddenAt, keywords, rec.Version,
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

func (r *PostgresRepository) ListByFeed(ctx context.Context, feedID int64) ([]*models.ArticleRecord, error) {
	query := `SELECT ` + pgColumns + ` FROM articles WHERE feed_id = $1 ORDER BY published_at DESC, url`
	return r.list(ctx, query, feedID)
}

func (r *PostgresRepository) ListHiddenSince(ctx context.Context, feedID int64, since time.Time) ([]*models.ArticleRecord, error) {
	query := `SELECT ` + pgColumns + ` FROM articles
		WHERE feed_id = $1 AND hidden AND hidden_at >= $2 ORDER BY hidden_at DESC, url`
	return r.list(ctx, query, feedID, since.UTC())
}

func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.ArticleRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	defer rows.Close()

	var result []*models.ArticleRecord
	for rows.Next() {
		rec, err := scanPostgres(rows)
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

func scanPostgres(s scanner) (*models.ArticleRecord, error) {
	var (
		rec            models.ArticleRecord
		hiddenAt       sql.NullTime
		tags, keywords []byte
	)
	if err := s.Scan(&rec.ID, &rec.FeedID, &rec.URL, &rec.Title, &rec.PublishedAt, &rec.CreatedAt,
		&rec.UpdatedAt, &rec.ExtractorID, &rec.Description, &tags, &rec.FullContentFetched,
		&rec.FullContentRetries, &rec.Hidden, &hiddenAt, &keywords, &rec.Version); err != nil {
		return nil, err
	}
	if hiddenAt.Valid {
		t := hiddenAt.Time.UTC()
		rec.HiddenAt = &t
	}
	rec.PublishedAt = rec.PublishedAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	var err error
	if rec.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if rec.HiddenKeywords, err = decodeList(keywords); err != nil {
		return nil, err
	}
	return &rec, nil
}
