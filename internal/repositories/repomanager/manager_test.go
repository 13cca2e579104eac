package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/articles"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/feeds"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/filters"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "feedfilter.db")

	db, m, err := Open(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"feeds", "filter_rules", "articles", "goose_db_version"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	// migrations are idempotent
	require.NoError(t, m.RunMigrations(ctx, db))

	f := &models.Feed{Name: "n", URL: "u"}
	require.NoError(t, m.Feeds(db).Create(ctx, f))
	require.NoError(t, m.Articles(db).Upsert(ctx, &models.ArticleRecord{FeedID: f.ID, URL: "a"}))
}

func TestOpen_SQLiteForeignKeysEnabled(t *testing.T) {
	ctx := context.Background()
	db, _, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"feedfilter.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		sqliteDSN(""))
	assert.Equal(t,
		":memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		sqliteDSN(":memory:"))
	assert.Equal(t,
		"/tmp/a.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		sqliteDSN("/tmp/a.db?cache=shared"))
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pg := NewPostgresRepositoryManager()
	var _ articles.Repository = pg.Articles(db)
	var _ feeds.Repository = pg.Feeds(db)
	var _ filters.Repository = pg.Filters(db)
	assert.IsType(t, &articles.PostgresRepository{}, pg.Articles(db))

	lite := NewSQLiteRepositoryManager()
	assert.IsType(t, &articles.SQLiteRepository{}, lite.Articles(db))
	assert.IsType(t, &feeds.SQLiteRepository{}, lite.Feeds(db))
	assert.IsType(t, &filters.SQLiteRepository{}, lite.Filters(db))
}

func TestPostgresRunMigrations_UsesPostgresDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := runMigrations
	defer func() { runMigrations = orig }()

	var gotDialect goose.Dialect
	runMigrations = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		gotDialect = dialect
		if _, err := fs.Stat(fsys, "00001_init.sql"); err != nil {
			return err
		}
		return nil
	}

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Equal(t, goose.DialectPostgres, gotDialect)
}

func TestPostgresRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := runMigrations
	defer func() { runMigrations = orig }()
	runMigrations = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		return errors.New("boom")
	}

	err = NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}
