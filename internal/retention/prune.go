// Package retention removes aging article records.
package retention

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
)

const DefaultDays = 60

type Pruner struct {
	db       *sql.DB
	articles func(dbx.DBTX) articles.Repository
	now      func() time.Time
}

// NewPruner takes the repository factory so deletion runs inside a
// transaction.
func NewPruner(db *sql.DB, repo func(dbx.DBTX) articles.Repository) *Pruner {
	return &Pruner{db: db, articles: repo, now: time.Now}
}

// Prune deletes records created more than days ago and returns how many
// were removed.
func (p *Pruner) Prune(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultDays
	}
	cutoff := p.now().UTC().AddDate(0, 0, -days)

	var n int64
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = p.articles(tx).DeleteCreatedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune articles: %w", err)
	}
	return n, nil
}
