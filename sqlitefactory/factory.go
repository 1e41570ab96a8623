// Package sqlitefactory implements chronos.ConnectionFactory for embedded
// SQLite deployments.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package sqlitefactory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Factory is a chronos.ConnectionFactory backed by mattn/go-sqlite3. Open a
// single Factory per database file; it lazily opens and caches the *sql.DB.
type Factory struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

// Open returns a Factory for the SQLite database at path. path may be a
// file path or ":memory:"; WAL-friendly pragmas are appended automatically
// unless the caller already supplied query parameters.
func Open(ctx context.Context, path string) (*Factory, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=off"
	}
	return &Factory{dsn: dsn}, nil
}

// Dialect names the SQL dialect.
func (f *Factory) Dialect() string { return "sqlite" }

// Open returns the shared *sql.DB handle, opening it on first call.
func (f *Factory) Open(ctx context.Context) (*sql.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db != nil {
		return f.db, nil
	}
	db, err := sql.Open("sqlite3", f.dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers internally; a single connection avoids
	// SQLITE_BUSY storms under concurrent Add/Remove.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	f.db = db
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entries (
	partition        TEXT NOT NULL,
	key              TEXT NOT NULL,
	utc_creation     INTEGER NOT NULL,
	utc_expiry       INTEGER NOT NULL,
	interval_seconds INTEGER NOT NULL,
	value_bytes      BLOB NOT NULL,
	compressed       INTEGER NOT NULL,
	value_kind       TEXT NOT NULL,
	parent_key_0     TEXT,
	parent_key_1     TEXT,
	parent_key_2     TEXT,
	parent_key_3     TEXT,
	parent_key_4     TEXT,
	tamper_hash      INTEGER NOT NULL,
	PRIMARY KEY (partition, key)
);
CREATE INDEX IF NOT EXISTS idx_entries_expiry ON entries (partition, utc_expiry);
CREATE INDEX IF NOT EXISTS idx_entries_parent0 ON entries (partition, parent_key_0);
CREATE INDEX IF NOT EXISTS idx_entries_parent1 ON entries (partition, parent_key_1);
CREATE INDEX IF NOT EXISTS idx_entries_parent2 ON entries (partition, parent_key_2);
CREATE INDEX IF NOT EXISTS idx_entries_parent3 ON entries (partition, parent_key_3);
CREATE INDEX IF NOT EXISTS idx_entries_parent4 ON entries (partition, parent_key_4);
`

// EnsureSchema creates the entries table and its indexes if absent.
func (f *Factory) EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}

func (f *Factory) UpsertSQL() string {
	return `INSERT INTO entries
		(partition, key, utc_creation, utc_expiry, interval_seconds,
		 value_bytes, compressed, value_kind,
		 parent_key_0, parent_key_1, parent_key_2, parent_key_3, parent_key_4,
		 tamper_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(partition, key) DO UPDATE SET
			utc_creation = excluded.utc_creation,
			utc_expiry = excluded.utc_expiry,
			interval_seconds = excluded.interval_seconds,
			value_bytes = excluded.value_bytes,
			compressed = excluded.compressed,
			value_kind = excluded.value_kind,
			parent_key_0 = excluded.parent_key_0,
			parent_key_1 = excluded.parent_key_1,
			parent_key_2 = excluded.parent_key_2,
			parent_key_3 = excluded.parent_key_3,
			parent_key_4 = excluded.parent_key_4,
			tamper_hash = excluded.tamper_hash`
}

func (f *Factory) selectColumns() string {
	return `partition, key, utc_creation, utc_expiry, interval_seconds,
		value_bytes, compressed, value_kind,
		parent_key_0, parent_key_1, parent_key_2, parent_key_3, parent_key_4,
		tamper_hash`
}

func (f *Factory) SelectForUpdateSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE partition = ? AND key = ? AND utc_expiry >= ?`, f.selectColumns())
}

func (f *Factory) ExtendSQL() string {
	return `UPDATE entries SET utc_expiry = ?, tamper_hash = ? WHERE partition = ? AND key = ?`
}

func (f *Factory) PeekSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE partition = ? AND key = ? AND utc_expiry >= ?`, f.selectColumns())
}

func (f *Factory) SelectLivePartitionSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE partition = ? AND utc_expiry >= ?`, f.selectColumns())
}

func (f *Factory) SelectLiveAllSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE utc_expiry >= ?`, f.selectColumns())
}

func (f *Factory) ContainsSQL() string {
	return `SELECT 1 FROM entries WHERE partition = ? AND key = ? AND utc_expiry >= ?`
}

func (f *Factory) DeleteSQL() string {
	return `DELETE FROM entries WHERE partition = ? AND key = ?`
}

func (f *Factory) CascadeSelectSQL() string {
	return `
	WITH RECURSIVE dependents(key) AS (
		SELECT key FROM entries
		WHERE partition = ? AND (
			parent_key_0 = ?2 OR parent_key_1 = ?2 OR parent_key_2 = ?2 OR
			parent_key_3 = ?2 OR parent_key_4 = ?2)
		UNION
		SELECT e.key FROM entries e, dependents d
		WHERE e.partition = ?1 AND (
			e.parent_key_0 = d.key OR e.parent_key_1 = d.key OR e.parent_key_2 = d.key OR
			e.parent_key_3 = d.key OR e.parent_key_4 = d.key)
	)
	SELECT key FROM dependents`
}

// CascadeSelectArgs: SQLite's ?1/?2 numbered placeholders let the same
// bound value satisfy every reference, so only (partition, key) is needed.
func (f *Factory) CascadeSelectArgs(partition, key string) []interface{} {
	return []interface{}{partition, key}
}

func (f *Factory) DeleteManySQL(placeholders string) string {
	return fmt.Sprintf(`DELETE FROM entries WHERE partition = ? AND key IN (%s)`, placeholders)
}

func (f *Factory) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

func (f *Factory) PurgeSQL() string {
	return `DELETE FROM entries WHERE utc_expiry < ?`
}

func (f *Factory) ClearPartitionSQL() string {
	return `DELETE FROM entries WHERE partition = ?`
}

func (f *Factory) ClearAllSQL() string {
	return `DELETE FROM entries`
}

func (f *Factory) ClearExpiredPartitionSQL() string {
	return `DELETE FROM entries WHERE partition = ? AND utc_expiry < ?`
}

func (f *Factory) CountPartitionSQL() string {
	return `SELECT COUNT(*) FROM entries WHERE partition = ?`
}

func (f *Factory) CountAllSQL() string {
	return `SELECT COUNT(*) FROM entries`
}

func (f *Factory) CountAllLiveSQL() string {
	return `SELECT COUNT(*) FROM entries WHERE utc_expiry >= ?`
}

func (f *Factory) CountPartitionLiveSQL() string {
	return `SELECT COUNT(*) FROM entries WHERE utc_expiry >= ? AND partition = ?`
}

// PageSize reports SQLite's page_count * page_size accounting for
// GetCacheSizeInBytes.
func (f *Factory) PageSize(ctx context.Context, db *sql.DB) (pageCount, pageSize int64, ok bool, err error) {
	if err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, 0, false, err
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, 0, false, err
	}
	return pageCount, pageSize, true, nil
}
