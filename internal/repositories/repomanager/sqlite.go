package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/feedfilter/internal/dbx"
	"github.com/dmitrijs2005/feedfilter/internal/migrations"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/feeds"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/filters"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to every pooled connection.
var sqlitePragmas = []string{"busy_timeout(5000)", "foreign_keys(1)", "journal_mode(WAL)"}

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Articles(db dbx.DBTX) articles.Repository {
	return articles.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Feeds(db dbx.DBTX) feeds.Repository {
	return feeds.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Filters(db dbx.DBTX) filters.Repository {
	return filters.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, goose.DialectSQLite3, db, migrations.SQLite())
}

func openSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// sqliteDSN appends the connection pragmas to dsn.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "feedfilter.db"
	}
	var params []string
	for _, p := range sqlitePragmas {
		if strings.Contains(p, "journal_mode") && strings.Contains(dsn, "memory") {
			continue
		}
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
