// Package pqfactory implements chronos.ConnectionFactory for PostgreSQL
// deployments using lib/pq.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package pqfactory

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq"
)

// Factory is a chronos.ConnectionFactory backed by lib/pq.
type Factory struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

// Open returns a Factory for the given PostgreSQL connection string.
func Open(ctx context.Context, dsn string) (*Factory, error) {
	return &Factory{dsn: dsn}, nil
}

func (f *Factory) Dialect() string { return "postgres" }

func (f *Factory) Open(ctx context.Context) (*sql.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db != nil {
		return f.db, nil
	}
	db, err := sql.Open("postgres", f.dsn)
	if err != nil {
		return nil, err
	}
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
	utc_creation     BIGINT NOT NULL,
	utc_expiry       BIGINT NOT NULL,
	interval_seconds BIGINT NOT NULL,
	value_bytes      BYTEA NOT NULL,
	compressed       BOOLEAN NOT NULL,
	value_kind       TEXT NOT NULL,
	parent_key_0     TEXT,
	parent_key_1     TEXT,
	parent_key_2     TEXT,
	parent_key_3     TEXT,
	parent_key_4     TEXT,
	tamper_hash      BIGINT NOT NULL,
	PRIMARY KEY (partition, key)
);
CREATE INDEX IF NOT EXISTS idx_entries_expiry ON entries (partition, utc_expiry);
CREATE INDEX IF NOT EXISTS idx_entries_parent0 ON entries (partition, parent_key_0);
CREATE INDEX IF NOT EXISTS idx_entries_parent1 ON entries (partition, parent_key_1);
CREATE INDEX IF NOT EXISTS idx_entries_parent2 ON entries (partition, parent_key_2);
CREATE INDEX IF NOT EXISTS idx_entries_parent3 ON entries (partition, parent_key_3);
CREATE INDEX IF NOT EXISTS idx_entries_parent4 ON entries (partition, parent_key_4);
`

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (partition, key) DO UPDATE SET
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
	return fmt.Sprintf(`SELECT %s FROM entries WHERE partition = $1 AND key = $2 AND utc_expiry >= $3 FOR UPDATE`, f.selectColumns())
}

func (f *Factory) ExtendSQL() string {
	return `UPDATE entries SET utc_expiry = $1, tamper_hash = $2 WHERE partition = $3 AND key = $4`
}

func (f *Factory) PeekSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE partition = $1 AND key = $2 AND utc_expiry >= $3`, f.selectColumns())
}

func (f *Factory) SelectLivePartitionSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE partition = $1 AND utc_expiry >= $2`, f.selectColumns())
}

func (f *Factory) SelectLiveAllSQL() string {
	return fmt.Sprintf(`SELECT %s FROM entries WHERE utc_expiry >= $1`, f.selectColumns())
}

func (f *Factory) ContainsSQL() string {
	return `SELECT 1 FROM entries WHERE partition = $1 AND key = $2 AND utc_expiry >= $3`
}

func (f *Factory) DeleteSQL() string {
	return `DELETE FROM entries WHERE partition = $1 AND key = $2`
}

func (f *Factory) CascadeSelectSQL() string {
	return `
	WITH RECURSIVE dependents(key) AS (
		SELECT key FROM entries
		WHERE partition = $1 AND (
			parent_key_0 = $2 OR parent_key_1 = $2 OR parent_key_2 = $2 OR
			parent_key_3 = $2 OR parent_key_4 = $2)
		UNION
		SELECT e.key FROM entries e, dependents d
		WHERE e.partition = $1 AND (
			e.parent_key_0 = d.key OR e.parent_key_1 = d.key OR e.parent_key_2 = d.key OR
			e.parent_key_3 = d.key OR e.parent_key_4 = d.key)
	)
	SELECT key FROM dependents`
}

// CascadeSelectArgs: PostgreSQL's $1/$2 numbered placeholders let the same
// bound value satisfy every reference, so only (partition, key) is needed.
func (f *Factory) CascadeSelectArgs(partition, key string) []interface{} {
	return []interface{}{partition, key}
}

func (f *Factory) DeleteManySQL(placeholders string) string {
	return fmt.Sprintf(`DELETE FROM entries WHERE partition = $1 AND key IN (%s)`, placeholders)
}

func (f *Factory) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(parts, ", ")
}

func (f *Factory) PurgeSQL() string {
	return `DELETE FROM entries WHERE utc_expiry < $1`
}

func (f *Factory) ClearPartitionSQL() string {
	return `DELETE FROM entries WHERE partition = $1`
}

func (f *Factory) ClearAllSQL() string {
	return `DELETE FROM entries`
}

func (f *Factory) ClearExpiredPartitionSQL() string {
	return `DELETE FROM entries WHERE partition = $1 AND utc_expiry < $2`
}

func (f *Factory) CountPartitionSQL() string {
	return `SELECT COUNT(*) FROM entries WHERE partition = $1`
}

func (f *Factory) CountAllSQL() string {
	return `SELECT COUNT(*) FROM entries`
}

func (f *Factory) CountAllLiveSQL() string {
	return `SELECT COUNT(*) FROM entries WHERE utc_expiry >= $1`
}

func (f *Factory) CountPartitionLiveSQL() string {
	return `SELECT COUNT(*) FROM entries WHERE utc_expiry >= $1 AND partition = $2`
}

// PageSize reports pg_total_relation_size for the entries table; pageSize
// is fixed at 1 since the byte count is already total bytes.
func (f *Factory) PageSize(ctx context.Context, db *sql.DB) (pageCount, pageSize int64, ok bool, err error) {
	var totalBytes int64
	if err := db.QueryRowContext(ctx, `SELECT pg_total_relation_size('entries')`).Scan(&totalBytes); err != nil {
		return 0, 0, false, err
	}
	return totalBytes, 1, true, nil
}
