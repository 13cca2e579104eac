// Package filters persists per-feed filter rules.
package filters

import (
	"context"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type Repository interface {
	// Create stores the rule and sets its ID. A rule duplicating
	// (feed, keyword, condition, field) yields common.ErrFilterRuleConflict.
	Create(ctx context.Context, r *models.FilterRule) error

	// ListByFeed returns the rules of a feed in creation order.
	ListByFeed(ctx context.Context, feedID int64) ([]models.FilterRule, error)

	// Delete removes a rule or returns common.ErrorNotFound.
	Delete(ctx context.Context, id int64) error
}
