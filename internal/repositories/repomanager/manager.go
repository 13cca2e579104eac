// Package repomanager vends dialect-specific repository implementations and
// runs the embedded schema migrations for them.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/feeds"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/filters"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Articles(db dbx.DBTX) articles.Repository
	Feeds(db dbx.DBTX) feeds.Repository
	Filters(db dbx.DBTX) filters.Repository
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the configured store, migrates it and returns the
// database handle with its matching manager.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		m   RepositoryManager
		err error
	)
	switch driver {
	case DriverSQLite, "":
		db, err = openSQLite(dsn)
		m = NewSQLiteRepositoryManager()
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		m = NewPostgresRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, m, nil
}
