// interfaces.go: capability contracts consumed by the cache engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package chronos

import (
	"context"
	"database/sql"
	"time"

	"github.com/agilira/go-timecache"
)

// Clock provides current time for the engine. All expiry arithmetic flows
// through this interface so tests can inject deterministic time sources.
type Clock interface {
	// Now returns the current UTC time. Implementations should be fast and
	// allocation-free; the engine calls it on every operation.
	Now() time.Time
}

// Random supplies the integers the maintenance cycle uses for probabilistic
// cleanup scheduling. Implementations need not be cryptographically
// secure.
type Random interface {
	// Intn returns a pseudo-random number in [0, n). n is always > 0.
	Intn(n int) int
}

// Serializer encodes and decodes values to and from a byte stream and
// advertises which runtime types it can round-trip.
type Serializer interface {
	// Name identifies the serializer for diagnostics and the stored
	// value-kind tag.
	Name() string

	// CanEncode reports whether value's runtime type can be round-tripped.
	// Add rejects values for which this returns false.
	CanEncode(value interface{}) bool

	// Encode serializes value to bytes.
	Encode(value interface{}) ([]byte, error)

	// Decode deserializes data into target, which must be a non-nil pointer.
	Decode(data []byte, target interface{}) error
}

// Compressor wraps a byte stream in a compressing/decompressing codec.
type Compressor interface {
	// Name identifies the compressor for diagnostics.
	Name() string

	// Compress returns a compressed copy of data.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
}

// TargetQuerier is implemented by *sql.DB and *sql.Tx, allowing the engine's
// internal statements to run inside or outside an explicit transaction.
type TargetQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ TargetQuerier = (*sql.DB)(nil)
	_ TargetQuerier = (*sql.Tx)(nil)
)

// ConnectionFactory is the dialect boundary: it supplies a database
// handle plus the dialect-specific SQL fragments every engine operation
// needs. Implementations live outside this package (sqlitefactory,
// pqfactory, myfactory, ...); the engine only ever depends on this
// interface.
type ConnectionFactory interface {
	// Dialect names the SQL dialect, used in diagnostics and metrics.
	Dialect() string

	// Open returns the shared *sql.DB handle, opening it on first call.
	Open(ctx context.Context) (*sql.DB, error)

	// EnsureSchema creates the entries table and its indexes if absent.
	// Implementations must tolerate concurrent callers (IF NOT EXISTS).
	EnsureSchema(ctx context.Context, db *sql.DB) error

	// UpsertSQL replaces any existing row at (partition, key).
	// Parameter order: partition, key, utc_creation, utc_expiry,
	// interval_seconds, value_bytes, compressed, value_kind,
	// parent_key_0..{MaxParentKeyColumns-1}, tamper_hash.
	UpsertSQL() string

	// SelectForUpdateSQL reads a live row and locks it for the sliding
	// extension that may follow in the same transaction.
	// Parameters: partition, key, now.
	SelectForUpdateSQL() string

	// ExtendSQL updates utc_expiry and tamper_hash for a sliding/static read.
	// The caller recomputes tamper_hash under SelectForUpdateSQL's lock, so
	// this is an unconditional SET rather than a MAX/GREATEST guard: the
	// enclosing transaction already serializes concurrent extenders.
	// Parameters: new utc_expiry, new tamper_hash, partition, key.
	ExtendSQL() string

	// PeekSQL reads a live row without locking or extending it.
	// Parameters: partition, key, now.
	PeekSQL() string

	// SelectLivePartitionSQL reads every live row in a partition, for
	// GetItems/PeekItems. Parameters: partition, now.
	SelectLivePartitionSQL() string

	// SelectLiveAllSQL reads every live row across every partition, for
	// GetItems/PeekItems called with an empty partition. Parameters: now.
	SelectLiveAllSQL() string

	// ContainsSQL checks existence and liveness.
	// Parameters: partition, key, now.
	ContainsSQL() string

	// DeleteSQL removes a single row. Parameters: partition, key.
	DeleteSQL() string

	// CascadeSelectSQL returns the transitive closure of rows whose
	// parent-key columns reference the given key, via a recursive CTE.
	// Use CascadeSelectArgs to build its argument list: some dialects
	// reuse a bound parameter across the query (SQLite, PostgreSQL),
	// others require each placeholder bound independently (MySQL).
	CascadeSelectSQL() string

	// CascadeSelectArgs builds the argument list for CascadeSelectSQL
	// from the logical (partition, key) pair.
	CascadeSelectArgs(partition, key string) []interface{}

	// DeleteManySQL deletes all rows in a partition whose key is in the
	// placeholder list built by the caller (see Placeholders).
	DeleteManySQL(placeholders string) string

	// Placeholders renders n positional placeholders in the dialect's own
	// syntax ("?, ?, ?" for MySQL/SQLite, "$1, $2, $3" for PostgreSQL),
	// starting at parameter index start (1-based). Used to build the IN
	// clause consumed by DeleteManySQL.
	Placeholders(start, n int) string

	// PurgeSQL deletes all rows whose utc_expiry has elapsed.
	// Parameters: now.
	PurgeSQL() string

	// ClearPartitionSQL deletes every row in a partition, ignoring expiry.
	// Parameters: partition.
	ClearPartitionSQL() string

	// ClearAllSQL truncates the entries table, ignoring expiry.
	ClearAllSQL() string

	// ClearExpiredPartitionSQL deletes only expired rows in a partition.
	// Parameters: partition, now.
	ClearExpiredPartitionSQL() string

	// Count* report row counts, live or total, scoped or global.
	// Parameters: (partition), none, (now), and (now, partition) respectively.
	CountPartitionSQL() string
	CountAllSQL() string
	CountAllLiveSQL() string
	CountPartitionLiveSQL() string

	// PageSize reports the on-disk page accounting the dialect exposes for
	// GetCacheSizeInBytes, or ok=false if the dialect has no such metadata.
	PageSize(ctx context.Context, db *sql.DB) (pageCount, pageSize int64, ok bool, err error)
}

// CacheReadMode toggles whether Count/Clear consider rows whose utc_expiry
// has elapsed but have not yet been purged.
type CacheReadMode int

const (
	// ConsiderExpiryDate excludes expired-but-unpurged rows.
	ConsiderExpiryDate CacheReadMode = iota
	// IgnoreExpiryDate includes every row regardless of liveness.
	IgnoreExpiryDate
)

func (m CacheReadMode) String() string {
	if m == IgnoreExpiryDate {
		return "IgnoreExpiryDate"
	}
	return "ConsiderExpiryDate"
}

// EntryKind is a caller-facing view over (interval, utc_expiry).
type EntryKind int

const (
	// KindTimed entries have a fixed utc_expiry; reads never extend it.
	KindTimed EntryKind = iota
	// KindSliding entries extend utc_expiry by interval on each live read.
	KindSliding
	// KindStatic entries behave like KindSliding with
	// interval = Settings.StaticInterval; the tag exists purely for
	// caller ergonomics.
	KindStatic
)

func (k EntryKind) String() string {
	switch k {
	case KindSliding:
		return "Sliding"
	case KindStatic:
		return "Static"
	default:
		return "Timed"
	}
}

// CacheResult is the present/absent sum returned by Get and Peek. A decode
// failure or a miss both yield Present == false; they are not distinguished
// here, matching the read-side error model.
type CacheResult[T any] struct {
	Value   T
	Present bool
}

// ICacheItem is a snapshot projection of a stored entry, returned by
// GetItems/PeekItems. ParentKeys is a defensive copy.
type ICacheItem[T any] struct {
	Partition   string
	Key         string
	Value       T
	Kind        EntryKind
	UTCCreation time.Time
	UTCExpiry   time.Time
	Interval    time.Duration
	ParentKeys  []string
}

// Logger defines a minimal structured logging interface. Implementations
// should be allocation-free on the hot path.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards every call. Used as the default to avoid nil checks.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// MetricsCollector receives operation metrics (latencies, hit/miss rates,
// maintenance activity). Implementations must be safe for concurrent use.
type MetricsCollector interface {
	RecordAdd(latencyNs int64, err error)
	RecordGet(latencyNs int64, hit bool)
	RecordPeek(latencyNs int64, hit bool)
	RecordRemove(latencyNs int64, cascaded int64)
	RecordPurge(deleted int64, durationNs int64)
	RecordCascade(deleted int64)
}

// NoOpMetricsCollector discards every call. Used as the default so the
// engine never has to nil-check its metrics collector.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordAdd(latencyNs int64, err error)         {}
func (NoOpMetricsCollector) RecordGet(latencyNs int64, hit bool)          {}
func (NoOpMetricsCollector) RecordPeek(latencyNs int64, hit bool)         {}
func (NoOpMetricsCollector) RecordRemove(latencyNs int64, cascaded int64) {}
func (NoOpMetricsCollector) RecordPurge(deleted int64, durationNs int64)  {}
func (NoOpMetricsCollector) RecordCascade(deleted int64)                  {}

// systemClock is the default Clock, backed by go-timecache.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Unix(0, timecache.CachedTimeNano()).UTC()
}
