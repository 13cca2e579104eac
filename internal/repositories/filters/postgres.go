package filters

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rule *models.FilterRule) error {
	query := `INSERT INTO filter_rules (feed_id, keyword, match_condition, match_field, action)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rule.FeedID, rule.Keyword, string(rule.Condition), string(rule.Field), string(rule.Action)).
		Scan(&rule.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", common.ErrFilterRuleConflict, rule)
		}
		return fmt.Errorf("failed to insert filter rule: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByFeed(ctx context.Context, feedID int64) ([]models.FilterRule, error) {
	query := `SELECT id, feed_id, keyword, match_condition, match_field, action
		FROM filter_rules WHERE feed_id = $1 ORDER BY id`
	return listRules(ctx, r.db, query, feedID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM filter_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete filter rule: %w", err)
	}
	return expectOne(res)
}
