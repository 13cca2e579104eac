package feeds

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanFeed(s scanner) (*models.Feed, error) {
	var f models.Feed
	var removeText string
	if err := s.Scan(&f.ID, &f.Name, &f.URL, &f.ExtractorID, &f.Folder, &removeText,
		&f.StopMarker, &f.ReportHidden); err != nil {
		return nil, err
	}
	f.RemoveText = models.ParseRemoveText(removeText)
	return &f, nil
}

func listFeeds(ctx context.Context, db dbx.DBTX, query string) ([]*models.Feed, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select feeds: %w", err)
	}
	defer rows.Close()

	var result []*models.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	if n != 1 {
		return fmt.Errorf("wrong rows affected count: %d", n)
	}
	return nil
}
