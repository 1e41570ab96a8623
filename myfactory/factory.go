// Package myfactory implements chronos.ConnectionFactory for MySQL
// deployments using go-sql-driver/mysql.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package myfactory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// Factory is a chronos.ConnectionFactory backed by go-sql-driver/mysql.
type Factory struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

// Open returns a Factory for the given MySQL DSN. If dsn has no query
// parameters, sql_mode=ansi is appended, mirroring how stdpool shapes MySQL
// DSNs so double-quoted identifiers are accepted.
func Open(ctx context.Context, dsn string) (*Factory, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?sql_mode=ansi&parseTime=true"
	}
	return &Factory{dsn: dsn}, nil
}

func (f *Factory) Dialect() string { return "mysql" }

func (f *Factory) Open(ctx context.Context) (*sql.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db != nil {
		return f.db, nil
	}
	db, err := sql.Open("mysql", f.dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	f.db = db
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entries (
	partition        VARCHAR(255) NOT NULL,
	` + "`key`" + `              VARCHAR(255) NOT NULL,
	utc_creation     BIGINT NOT NULL,
	utc_expiry       BIGINT NOT NULL,
	interval_seconds BIGINT NOT NULL,
	value_bytes      LONGBLOB NOT NULL,
	compressed       TINYINT(1) NOT NULL,
	value_kind       VARCHAR(64) NOT NULL,
	parent_key_0     VARCHAR(255),
	parent_key_1     VARCHAR(255),
	parent_key_2     VARCHAR(255),
	parent_key_3     VARCHAR(255),
	parent_key_4     VARCHAR(255),
	tamper_hash      BIGINT NOT NULL,
	PRIMARY KEY (partition, ` + "`key`" + `),
	INDEX idx_entries_expiry (partition, utc_expiry),
	INDEX idx_entries_parent0 (partition, parent_key_0),
	INDEX idx_entries_parent1 (partition, parent_key_1),
	INDEX idx_entries_parent2 (partition, parent_key_2),
	INDEX idx_entries_parent3 (partition, parent_key_3),
	INDEX idx_entries_parent4 (partition, parent_key_4)
) ENGINE=InnoDB;
`

func (f *Factory) EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return errors.WithStack(err)
}

func (f *Factory) UpsertSQL() string {
	return "INSERT INTO entries " +
		"(partition, `key`, utc_creation, utc_expiry, interval_seconds, " +
		"value_bytes, compressed, value_kind, " +
		"parent_key_0, parent_key_1, parent_key_2, parent_key_3, parent_key_4, " +
		"tamper_hash) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE " +
		"utc_creation = VALUES(utc_creation), " +
		"utc_expiry = VALUES(utc_expiry), " +
		"interval_seconds = VALUES(interval_seconds), " +
		"value_bytes = VALUES(value_bytes), " +
		"compressed = VALUES(compressed), " +
		"value_kind = VALUES(value_kind), " +
		"parent_key_0 = VALUES(parent_key_0), " +
		"parent_key_1 = VALUES(parent_key_1), " +
		"parent_key_2 = VALUES(parent_key_2), " +
		"parent_key_3 = VALUES(parent_key_3), " +
		"parent_key_4 = VALUES(parent_key_4), " +
		"tamper_hash = VALUES(tamper_hash)"
}

func (f *Factory) selectColumns() string {
	return "partition, `key`, utc_creation, utc_expiry, interval_seconds, " +
		"value_bytes, compressed, value_kind, " +
		"parent_key_0, parent_key_1, parent_key_2, parent_key_3, parent_key_4, " +
		"tamper_hash"
}

func (f *Factory) SelectForUpdateSQL() string {
	return fmt.Sprintf("SELECT %s FROM entries WHERE partition = ? AND `key` = ? AND utc_expiry >= ? FOR UPDATE", f.selectColumns())
}

func (f *Factory) ExtendSQL() string {
	return "UPDATE entries SET utc_expiry = ?, tamper_hash = ? WHERE partition = ? AND `key` = ?"
}

func (f *Factory) PeekSQL() string {
	return fmt.Sprintf("SELECT %s FROM entries WHERE partition = ? AND `key` = ? AND utc_expiry >= ?", f.selectColumns())
}

func (f *Factory) SelectLivePartitionSQL() string {
	return fmt.Sprintf("SELECT %s FROM entries WHERE partition = ? AND utc_expiry >= ?", f.selectColumns())
}

func (f *Factory) SelectLiveAllSQL() string {
	return fmt.Sprintf("SELECT %s FROM entries WHERE utc_expiry >= ?", f.selectColumns())
}

func (f *Factory) ContainsSQL() string {
	return "SELECT 1 FROM entries WHERE partition = ? AND `key` = ? AND utc_expiry >= ?"
}

func (f *Factory) DeleteSQL() string {
	return "DELETE FROM entries WHERE partition = ? AND `key` = ?"
}

// CascadeSelectSQL mirrors the SQLite/Postgres recursive CTE; MySQL 8.0+
// supports WITH RECURSIVE with the same syntax.
func (f *Factory) CascadeSelectSQL() string {
	return "WITH RECURSIVE dependents(k) AS (" +
		"SELECT `key` FROM entries " +
		"WHERE partition = ? AND (parent_key_0 = ? OR parent_key_1 = ? OR parent_key_2 = ? OR parent_key_3 = ? OR parent_key_4 = ?) " +
		"UNION " +
		"SELECT e.`key` FROM entries e JOIN dependents d ON " +
		"e.partition = ? AND (e.parent_key_0 = d.k OR e.parent_key_1 = d.k OR e.parent_key_2 = d.k OR e.parent_key_3 = d.k OR e.parent_key_4 = d.k)" +
		") SELECT k FROM dependents"
}

// CascadeSelectArgs: MySQL's ? placeholders bind positionally with no
// reuse, so every repeated reference to partition or key needs its own
// argument, in the order CascadeSelectSQL's placeholders appear.
func (f *Factory) CascadeSelectArgs(partition, key string) []interface{} {
	return []interface{}{partition, key, key, key, key, key, partition}
}

func (f *Factory) DeleteManySQL(placeholders string) string {
	return fmt.Sprintf("DELETE FROM entries WHERE partition = ? AND `key` IN (%s)", placeholders)
}

func (f *Factory) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

func (f *Factory) PurgeSQL() string {
	return "DELETE FROM entries WHERE utc_expiry < ?"
}

func (f *Factory) ClearPartitionSQL() string {
	return "DELETE FROM entries WHERE partition = ?"
}

func (f *Factory) ClearAllSQL() string {
	return "DELETE FROM entries"
}

func (f *Factory) ClearExpiredPartitionSQL() string {
	return "DELETE FROM entries WHERE partition = ? AND utc_expiry < ?"
}

func (f *Factory) CountPartitionSQL() string {
	return "SELECT COUNT(*) FROM entries WHERE partition = ?"
}

func (f *Factory) CountAllSQL() string {
	return "SELECT COUNT(*) FROM entries"
}

func (f *Factory) CountAllLiveSQL() string {
	return "SELECT COUNT(*) FROM entries WHERE utc_expiry >= ?"
}

func (f *Factory) CountPartitionLiveSQL() string {
	return "SELECT COUNT(*) FROM entries WHERE utc_expiry >= ? AND partition = ?"
}

// PageSize reports INFORMATION_SCHEMA's data+index length for the entries
// table; pageSize is fixed at 1 since the byte count is already total bytes.
func (f *Factory) PageSize(ctx context.Context, db *sql.DB) (pageCount, pageSize int64, ok bool, err error) {
	var totalBytes sql.NullInt64
	row := db.QueryRowContext(ctx, `SELECT (DATA_LENGTH + INDEX_LENGTH) FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'entries'`)
	if err := row.Scan(&totalBytes); err != nil {
		return 0, 0, false, errors.WithStack(err)
	}
	if !totalBytes.Valid {
		return 0, 0, false, nil
	}
	return totalBytes.Int64, 1, true, nil
}
