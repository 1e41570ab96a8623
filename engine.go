// engine.go: CacheEngine, the public engine contract
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-errors"
)

// CacheEngine is the single concrete implementation of the cache contract,
// parameterized over its capabilities rather than specialized per dialect
// Construct one per ConnectionFactory; all methods are
// safe for concurrent use.
type CacheEngine struct {
	cf       ConnectionFactory
	codec    *valueCodec
	settings *SettingsStore
	clock    Clock
	random   Random
	logger   Logger
	metrics  MetricsCollector

	db *sql.DB

	opCounter int64 // atomic; see maintenance.go

	lastErr atomic.Value // stores error

	inflight sync.Map // key -> *inflightCall, see generic.go's GetOrAdd

	purgeCh  chan struct{}
	closeCh  chan struct{}
	closeWg  sync.WaitGroup
	closedMu sync.Mutex
	closed   bool
}

// EngineOption customizes a CacheEngine at construction time.
type EngineOption func(*CacheEngine)

// WithSerializer sets the engine's Serializer. There is no default:
// NewEngine fails unless this option supplies one.
func WithSerializer(s Serializer) EngineOption {
	return func(e *CacheEngine) { e.codec.serializer = s }
}

// WithCompressor sets the engine's Compressor. Without this option (or with
// nil) the engine stores every value uncompressed.
func WithCompressor(c Compressor) EngineOption {
	return func(e *CacheEngine) { e.codec.compressor = c }
}

// WithClock overrides the default go-timecache-backed Clock.
func WithClock(c Clock) EngineOption {
	return func(e *CacheEngine) { e.clock = c }
}

// WithRandom overrides the default math/rand-backed Random.
func WithRandom(r Random) EngineOption {
	return func(e *CacheEngine) { e.random = r }
}

// WithLogger overrides the default NoOpLogger.
func WithLogger(l Logger) EngineOption {
	return func(e *CacheEngine) { e.logger = l }
}

// WithMetricsCollector overrides the default NoOpMetricsCollector.
func WithMetricsCollector(m MetricsCollector) EngineOption {
	return func(e *CacheEngine) { e.metrics = m }
}

// NewEngine opens cf, ensures the schema exists, and returns a ready
// CacheEngine. The background maintenance worker starts immediately.
func NewEngine(ctx context.Context, cf ConnectionFactory, settings Settings, opts ...EngineOption) (*CacheEngine, error) {
	_ = settings.Validate()

	db, err := cf.Open(ctx)
	if err != nil {
		return nil, NewErrWriteFailure("open", err)
	}
	if err := cf.EnsureSchema(ctx, db); err != nil {
		return nil, NewErrWriteFailure("ensure_schema", err)
	}

	e := &CacheEngine{
		cf:       cf,
		db:       db,
		settings: NewSettingsStore(settings),
		clock:    systemClock{},
		random:   newDefaultRandom(),
		logger:   NoOpLogger{},
		metrics:  NoOpMetricsCollector{},
		purgeCh:  make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	e.codec = newValueCodec(nil, nil, settings.MinValueLengthForCompression)

	for _, opt := range opts {
		opt(e)
	}
	if e.codec.serializer == nil {
		return nil, errors.NewWithField(ErrCodeInvalidArgument, "no Serializer configured", "option", "WithSerializer")
	}

	e.settings.OnChange(func(old, updated Settings) {
		e.codec.minLenForCompression = updated.MinValueLengthForCompression
		e.logger.Info("settings updated",
			"operation_count_before_soft_cleanup", updated.OperationCountBeforeSoftCleanup,
			"chances_of_auto_cleanup", updated.ChancesOfAutoCleanup)
	})

	e.startMaintenanceWorker()
	return e, nil
}

// Close stops the background maintenance worker. It does not close the
// underlying *sql.DB, which the ConnectionFactory owns.
func (e *CacheEngine) Close() error {
	e.closedMu.Lock()
	if e.closed {
		e.closedMu.Unlock()
		return nil
	}
	e.closed = true
	e.closedMu.Unlock()

	close(e.closeCh)
	e.closeWg.Wait()
	return nil
}

// LastError returns the most recent read/write/decode failure recorded by
// the engine, or nil. It is a diagnostic aid only and does not affect
// control flow.
func (e *CacheEngine) LastError() error {
	if v := e.lastErr.Load(); v != nil {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

func (e *CacheEngine) recordErr(err error) {
	if err != nil {
		e.lastErr.Store(err)
	}
}

func (e *CacheEngine) resolvePartition(partition string) string {
	if partition == "" {
		return e.settings.Get().DefaultPartition
	}
	return partition
}

// addInternal implements Add's untyped core; generic.go's Add wraps it.
func (e *CacheEngine) addInternal(ctx context.Context, partition, key string, value interface{}, expiry Expiry, parentKeys []string) error {
	start := time.Now()
	err := e.doAdd(ctx, partition, key, value, expiry, parentKeys)
	e.metrics.RecordAdd(time.Since(start).Nanoseconds(), err)
	if err != nil && !IsWriteFailure(err) {
		// argument/contract errors are not write failures; don't pollute LastError
		return err
	}
	e.recordErr(err)
	return err
}

func (e *CacheEngine) doAdd(ctx context.Context, partition, key string, value interface{}, expiry Expiry, parentKeys []string) error {
	if key == "" {
		return NewErrEmptyKey("Add")
	}
	partition = e.resolvePartition(partition)
	settings := e.settings.Get()

	if len(parentKeys) > settings.MaxParentKeyCountPerItem {
		return NewErrTooManyParents(len(parentKeys), settings.MaxParentKeyCountPerItem)
	}
	for _, pk := range parentKeys {
		if pk == "" {
			return NewErrEmptyKey("Add.parentKeys")
		}
	}
	if !e.codec.canEncode(value) {
		return NewErrUnencodableValue(key, nil)
	}

	now := e.clock.Now()
	utcExpiry, intervalSec, err := resolveExpiry(expiry, now, settings.StaticInterval)
	if err != nil {
		return err
	}
	if utcExpiry.Before(now) {
		return NewErrInvalidExpiry("expiry is in the past")
	}

	ev, err := e.codec.encode(value, partition, key, now.Unix(), utcExpiry.Unix(), intervalSec*int64(time.Second))
	if err != nil {
		return err
	}
	if int64(len(ev.bytes)) > settings.MaxValueSize {
		return NewErrValueTooLarge(key, int64(len(ev.bytes)), settings.MaxValueSize)
	}

	parentCols, err := fixedParentKeyColumns(parentKeys)
	if err != nil {
		return err
	}

	if len(parentKeys) > 0 {
		if missing, err := e.missingParents(ctx, partition, parentKeys); err != nil {
			return err
		} else if len(missing) > 0 {
			return NewErrParentNotFound(partition, missing)
		}
	}

	args := append([]interface{}{
		partition, key, now.Unix(), utcExpiry.Unix(), intervalSec,
		ev.bytes, ev.compressed, ev.valueKind,
	}, parentCols[:]...)
	args = append(args, int64(ev.tamperHash))

	err = e.withWriteRetries(ctx, func() error {
		if _, err := e.db.ExecContext(ctx, e.cf.UpsertSQL(), args...); err != nil {
			if ctx.Err() != nil {
				return NewErrCancelled("Add", ctx.Err())
			}
			return NewErrWriteFailure("Add", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.bumpOpCounter()
	return nil
}

func (e *CacheEngine) missingParents(ctx context.Context, partition string, parentKeys []string) ([]string, error) {
	missing := make([]string, 0)
	now := e.clock.Now().Unix()
	for _, pk := range parentKeys {
		var dummy int64
		row := e.db.QueryRowContext(ctx, e.cf.ContainsSQL(), partition, pk, now)
		if err := row.Scan(&dummy); err != nil {
			if err == sql.ErrNoRows {
				missing = append(missing, pk)
				continue
			}
			return nil, NewErrReadFailure("Add.checkParents", err)
		}
	}
	return missing, nil
}

// getInternal implements Get's untyped core: reads a live row, decodes it
// into target, and extends sliding expiry in the same pass.
func (e *CacheEngine) getInternal(ctx context.Context, partition, key string, target interface{}) (bool, error) {
	start := time.Now()
	found, err := e.doGet(ctx, partition, key, target, true)
	e.metrics.RecordGet(time.Since(start).Nanoseconds(), found)
	if err != nil {
		e.recordErr(err)
		return false, nil // read failures are absorbed into absent
	}
	return found, nil
}

// peekInternal implements Peek's untyped core: like getInternal but never
// extends sliding expiry.
func (e *CacheEngine) peekInternal(ctx context.Context, partition, key string, target interface{}) (bool, error) {
	start := time.Now()
	found, err := e.doGet(ctx, partition, key, target, false)
	e.metrics.RecordPeek(time.Since(start).Nanoseconds(), found)
	if err != nil {
		e.recordErr(err)
		return false, nil
	}
	return found, nil
}

func (e *CacheEngine) doGet(ctx context.Context, partition, key string, target interface{}, extend bool) (bool, error) {
	if key == "" {
		return false, NewErrEmptyKey("Get")
	}
	partition = e.resolvePartition(partition)
	now := e.clock.Now()

	r, found, err := e.selectRow(ctx, partition, key, now, extend)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := e.codec.decode(encodedValue{
		bytes:      r.valueBytes,
		compressed: r.compressed,
		valueKind:  r.valueKind,
		tamperHash: r.tamperHash,
	}, target, r.partition, r.key, r.utcCreationSec, r.utcExpirySec, r.intervalSec*int64(time.Second)); err != nil {
		return false, err
	}

	if extend && r.intervalSec > 0 {
		e.bumpOpCounter()
	}
	return true, nil
}

// readRow runs query (PeekSQL or SelectForUpdateSQL) against q, which may be
// e.db or an open transaction, and scans the result into a row.
func (e *CacheEngine) readRow(ctx context.Context, q TargetQuerier, query, partition, key string, now time.Time) (row, bool, error) {
	var r row
	var ph [MaxParentKeyColumns]sql.NullString
	scanRow := q.QueryRowContext(ctx, query, partition, key, now.Unix())
	dest := []interface{}{
		&r.partition, &r.key, &r.utcCreationSec, &r.utcExpirySec, &r.intervalSec,
		&r.valueBytes, &r.compressed, &r.valueKind,
	}
	for i := range ph {
		dest = append(dest, &ph[i])
	}
	var tamper int64
	dest = append(dest, &tamper)

	if err := scanRow.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return row{}, false, nil
		}
		if ctx.Err() != nil {
			return row{}, false, NewErrCancelled("Get", ctx.Err())
		}
		return row{}, false, NewErrReadFailure("Get", err)
	}
	r.parentKeys = ph
	r.tamperHash = uint64(tamper)
	return r, true, nil
}

// selectRow reads (partition, key). When extend is false it is a single
// autocommit PeekSQL. When extend is true and the row is sliding/static, the
// read-lock (SelectForUpdateSQL), the monotonic expiry computation, and the
// utc_expiry/tamper_hash update all run inside one transaction, retried per
// Settings.WriteRetries on a transient conflict, so a concurrent extender can
// never observe or leave behind a utc_expiry/tamper_hash pair that don't
// match each other.
func (e *CacheEngine) selectRow(ctx context.Context, partition, key string, now time.Time, extend bool) (row, bool, error) {
	if !extend {
		return e.readRow(ctx, e.db, e.cf.PeekSQL(), partition, key, now)
	}

	var result row
	var found bool
	err := e.withWriteRetries(ctx, func() error {
		return e.runInTx(ctx, "Get.extend", func(tx TargetQuerier) error {
			r, ok, err := e.readRow(ctx, tx, e.cf.SelectForUpdateSQL(), partition, key, now)
			if err != nil {
				return err
			}
			if !ok {
				found = false
				return nil
			}

			if r.intervalSec > 0 {
				newExpiry := r.utcExpirySec
				if candidate := now.Add(time.Duration(r.intervalSec) * time.Second).Unix(); candidate > newExpiry {
					newExpiry = candidate
				}
				if newExpiry != r.utcExpirySec {
					newHash := computeTamperHash(partition, key, r.utcCreationSec, newExpiry, r.intervalSec*int64(time.Second), len(r.valueBytes))
					if _, err := tx.ExecContext(ctx, e.cf.ExtendSQL(), newExpiry, int64(newHash), partition, key); err != nil {
						if ctx.Err() != nil {
							return NewErrCancelled("Get.extend", ctx.Err())
						}
						return NewErrWriteFailure("Get.extend", err)
					}
					r.utcExpirySec = newExpiry
					r.tamperHash = newHash
				}
			}

			result = r
			found = true
			return nil
		})
	})
	if err != nil {
		return row{}, false, err
	}
	return result, found, nil
}

// Contains reports whether (partition, key) names a currently live entry.
func (e *CacheEngine) Contains(ctx context.Context, partition, key string) (bool, error) {
	if key == "" {
		return false, NewErrEmptyKey("Contains")
	}
	partition = e.resolvePartition(partition)
	var dummy int64
	err := e.db.QueryRowContext(ctx, e.cf.ContainsSQL(), partition, key, e.clock.Now().Unix()).Scan(&dummy)
	if err == nil {
		return true, nil
	}
	if err == sql.ErrNoRows {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, NewErrCancelled("Contains", ctx.Err())
	}
	e.recordErr(NewErrReadFailure("Contains", err))
	return false, nil
}

// Remove deletes (partition, key) and cascades to every entry that depends
// on it transitively. Removing an absent key is a no-op.
func (e *CacheEngine) Remove(ctx context.Context, partition, key string) error {
	if key == "" {
		return NewErrEmptyKey("Remove")
	}
	partition = e.resolvePartition(partition)
	start := time.Now()

	cascaded, err := e.cascadeRemove(ctx, partition, key)
	e.metrics.RecordRemove(time.Since(start).Nanoseconds(), cascaded)
	if err != nil {
		e.recordErr(err)
		return err
	}
	e.bumpOpCounter()
	return nil
}

// Count returns the number of entries in partition (or every partition, if
// empty) visible under mode.
func (e *CacheEngine) Count(ctx context.Context, partition string, mode CacheReadMode) (int, error) {
	n, err := e.LongCount(ctx, partition, mode)
	return int(n), err
}

// LongCount is Count's 64-bit counterpart, for stores that may exceed int range.
func (e *CacheEngine) LongCount(ctx context.Context, partition string, mode CacheReadMode) (int64, error) {
	var query string
	var args []interface{}
	now := e.clock.Now().Unix()

	switch {
	case partition == "" && mode == IgnoreExpiryDate:
		query, args = e.cf.CountAllSQL(), nil
	case partition == "" && mode == ConsiderExpiryDate:
		query, args = e.cf.CountAllLiveSQL(), []interface{}{now}
	case mode == IgnoreExpiryDate:
		query, args = e.cf.CountPartitionSQL(), []interface{}{partition}
	default:
		query, args = e.cf.CountPartitionLiveSQL(), []interface{}{now, partition}
	}

	var count int64
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		if ctx.Err() != nil {
			return 0, NewErrCancelled("Count", ctx.Err())
		}
		return 0, NewErrReadFailure("Count", err)
	}
	return count, nil
}

// Clear removes rows in scope partition (every partition, if empty).
// IgnoreExpiryDate truncates the scope unconditionally; ConsiderExpiryDate
// purges only already-expired rows. Returns the number of rows deleted.
func (e *CacheEngine) Clear(ctx context.Context, partition string, mode CacheReadMode) (int64, error) {
	var query string
	var args []interface{}
	now := e.clock.Now().Unix()

	switch {
	case partition == "" && mode == IgnoreExpiryDate:
		query, args = e.cf.ClearAllSQL(), nil
	case partition == "" && mode == ConsiderExpiryDate:
		query, args = e.cf.PurgeSQL(), []interface{}{now}
	case mode == IgnoreExpiryDate:
		query, args = e.cf.ClearPartitionSQL(), []interface{}{partition}
	default:
		query, args = e.cf.ClearExpiredPartitionSQL(), []interface{}{partition, now}
	}

	var n int64
	err := e.withWriteRetries(ctx, func() error {
		res, err := e.db.ExecContext(ctx, query, args...)
		if err != nil {
			if ctx.Err() != nil {
				return NewErrCancelled("Clear", ctx.Err())
			}
			return NewErrWriteFailure("Clear", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// scanRows runs a live-entries query scoped to partition (every partition,
// if empty) and returns the raw rows, undecoded. GetItems/PeekItems decode
// each row through the codec at the generic.go call site, since only there
// is the caller's T known.
func (e *CacheEngine) scanRows(ctx context.Context, partition string) ([]row, error) {
	now := e.clock.Now().Unix()
	var rows *sql.Rows
	var err error
	if partition == "" {
		rows, err = e.db.QueryContext(ctx, e.cf.SelectLiveAllSQL(), now)
	} else {
		rows, err = e.db.QueryContext(ctx, e.cf.SelectLivePartitionSQL(), partition, now)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewErrCancelled("GetItems", ctx.Err())
		}
		return nil, NewErrReadFailure("GetItems", err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		var ph [MaxParentKeyColumns]sql.NullString
		var tamper int64
		dest := []interface{}{
			&r.partition, &r.key, &r.utcCreationSec, &r.utcExpirySec, &r.intervalSec,
			&r.valueBytes, &r.compressed, &r.valueKind,
		}
		for i := range ph {
			dest = append(dest, &ph[i])
		}
		dest = append(dest, &tamper)
		if err := rows.Scan(dest...); err != nil {
			return nil, NewErrReadFailure("GetItems", err)
		}
		r.parentKeys = ph
		r.tamperHash = uint64(tamper)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewErrReadFailure("GetItems", err)
	}
	return out, nil
}

// GetCacheSizeInBytes estimates the on-disk footprint of the backing store
// The estimate is dialect-dependent and may be approximate.
func (e *CacheEngine) GetCacheSizeInBytes(ctx context.Context) (int64, error) {
	pageCount, pageSize, ok, err := e.cf.PageSize(ctx, e.db)
	if err != nil {
		return 0, NewErrReadFailure("GetCacheSizeInBytes", err)
	}
	if !ok {
		return 0, nil
	}
	return pageCount * pageSize, nil
}
