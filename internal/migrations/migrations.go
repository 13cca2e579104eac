// Package migrations embeds the goose schema migrations for each supported
// database dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations for the embedded SQLite store.
func SQLite() fs.FS {
	sub, _ := fs.Sub(files, "sqlite")
	return sub
}

// Postgres returns the migrations for PostgreSQL.
func Postgres() fs.FS {
	sub, _ := fs.Sub(files, "postgres")
	return sub
}
