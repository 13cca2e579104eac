// Package articles persists ArticleRecords, one row per (feed, url).
//
// Writes are optimistic: every row carries a version, and Upsert only
// replaces a row whose stored version equals the record's Version. A record
// with Version 0 is expected not to exist yet. When the precondition fails
// no row is touched and common.ErrVersionConflict is returned; on success
// the record's Version is advanced to the stored value.
//
// Implementations:
//
//   - SQLiteRepository: modernc.org/sqlite, times stored as fixed-width UTC text
//   - PostgresRepository: pgx stdlib, TIMESTAMPTZ and JSONB columns
//
// Both work over a dbx.DBTX (either *sql.DB or *sql.Tx).
package articles
