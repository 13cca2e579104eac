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

const columns = `id, name, url, extractor_id, folder, remove_text, stop_marker, report_hidden`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, f *models.Feed) error {
	query := `INSERT INTO feeds (name, url, extractor_id, folder, remove_text, stop_marker, report_hidden)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, f.Name, f.URL, f.Extractor(), f.Folder,
		models.JoinRemoveText(f.RemoveText), f.StopMarker, f.ReportHidden)
	if err != nil {
		return fmt.Errorf("failed to insert feed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM feeds WHERE id = ?`, id)
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Feed, error) {
	return listFeeds(ctx, r.db, `SELECT `+columns+` FROM feeds ORDER BY id`)
}

func (r *SQLiteRepository) ListForReport(ctx context.Context) ([]*models.Feed, error) {
	return listFeeds(ctx, r.db, `SELECT `+columns+` FROM feeds ORDER BY report_hidden DESC, name`)
}

func (r *SQLiteRepository) UpdateURL(ctx context.Context, id int64, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feeds SET url = ? WHERE id = ?`, url, id)
	if err != nil {
		return fmt.Errorf("failed to update feed url: %w", err)
	}
	return expectOne(res)
}
