package articles

import (
	"context"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

// Repository describes the record store operations used by the build
// pipeline, reports and retention.
type Repository interface {
	// Find returns the record for (feedID, url) or common.ErrorNotFound.
	Find(ctx context.Context, feedID int64, url string) (*models.ArticleRecord, error)

	// Upsert inserts or replaces the record under the optimistic version check.
	Upsert(ctx context.Context, rec *models.ArticleRecord) error

	// ListByFeed returns every record of a feed, newest first.
	ListByFeed(ctx context.Context, feedID int64) ([]*models.ArticleRecord, error)

	// ListHiddenSince returns hidden records of a feed hidden at or after since.
	ListHiddenSince(ctx context.Context, feedID int64, since time.Time) ([]*models.ArticleRecord, error)

	// DeleteCreatedBefore removes records created before cutoff and reports
	// how many were deleted.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
