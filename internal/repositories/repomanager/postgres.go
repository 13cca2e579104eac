package repomanager

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/migrations"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/feeds"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/filters"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Articles(db dbx.DBTX) articles.Repository {
	return articles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Feeds(db dbx.DBTX) feeds.Repository {
	return feeds.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Filters(db dbx.DBTX) filters.Repository {
	return filters.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, goose.DialectPostgres, db, migrations.Postgres())
}

// runMigrations is a seam for tests that cannot reach a real database.
var runMigrations = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}
