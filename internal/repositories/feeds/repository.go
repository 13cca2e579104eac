// Package feeds persists feed definitions and the per-feed settings the
// build pipeline reads (extractor, text removal rules, report flag).
package feeds

import (
	"context"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type Repository interface {
	// Create inserts the feed and sets its ID.
	Create(ctx context.Context, f *models.Feed) error

	// GetByID returns a feed or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Feed, error)

	// List returns every feed ordered by id.
	List(ctx context.Context) ([]*models.Feed, error)

	// ListForReport returns feeds flagged for reporting first, then by name.
	ListForReport(ctx context.Context) ([]*models.Feed, error)

	// UpdateURL stores a new canonical source location after a redirect.
	UpdateURL(ctx context.Context, id int64, url string) error
}
