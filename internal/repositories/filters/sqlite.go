package filters

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rule *models.FilterRule) error {
	query := `INSERT INTO filter_rules (feed_id, keyword, match_condition, match_field, action)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, rule.FeedID, rule.Keyword, string(rule.Condition), string(rule.Field), string(rule.Action))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", common.ErrFilterRuleConflict, rule)
		}
		return fmt.Errorf("failed to insert filter rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rule.ID = id
	return nil
}

func (r *SQLiteRepository) ListByFeed(ctx context.Context, feedID int64) ([]models.FilterRule, error) {
	query := `SELECT id, feed_id, keyword, match_condition, match_field, action
		FROM filter_rules WHERE feed_id = ? ORDER BY id`
	return listRules(ctx, r.db, query, feedID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM filter_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete filter rule: %w", err)
	}
	return expectOne(res)
}
