package feeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

// PostgresRepository implements feed storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Feed) error {
	query := `INSERT INTO feeds (name, url, extractor_id, folder, remove_text, stop_marker, report_hidden)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, f.Name, f.URL, f.Extractor(), f.Folder,
		models.JoinRemoveText(f.RemoveText), f.StopMarker, f.ReportHidden).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert feed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM feeds WHERE id = $1`, id)
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Feed, error) {
	return listFeeds(ctx, r.db, `SELECT `+columns+` FROM feeds ORDER BY id`)
}

func (r *PostgresRepository) ListForReport(ctx context.Context) ([]*models.Feed, error) {
	return listFeeds(ctx, r.db, `SELECT `+columns+` FROM feeds ORDER BY report_hidden DESC, name`)
}

func (r *PostgresRepository) UpdateURL(ctx context.Context, id int64, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feeds SET url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("failed to update feed url: %w", err)
	}
	return expectOne(res)
}
