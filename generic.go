// generic.go: package-level generic entry points over the non-generic
// CacheEngine core
//
// Go methods cannot introduce type parameters of their own beyond the
// receiver's, and a single engine instance must hold values of many
// different types across different keys. These free functions are the
// typed front door; CacheEngine itself stays untyped internally.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"context"
	"sync"
	"time"
)

// Expiry describes an entry's lifetime policy at Add time.
// Construct one with Timed, Sliding, or Static.
type Expiry struct {
	kind     EntryKind
	at       time.Time
	interval time.Duration
}

// Timed returns an expiry with a fixed absolute deadline; reads never
// extend it.
func Timed(at time.Time) Expiry {
	return Expiry{kind: KindTimed, at: at}
}

// Sliding returns an expiry that extends to now+interval on every live read.
func Sliding(interval time.Duration) Expiry {
	return Expiry{kind: KindSliding, interval: interval}
}

// Static returns an expiry structurally identical to Sliding, using
// Settings.StaticInterval. The distinct EntryKind exists only for caller
// ergonomics.
func Static() Expiry {
	return Expiry{kind: KindStatic}
}

// resolveExpiry computes (utc_expiry, interval_seconds) for expiry given now
// and the engine's configured StaticInterval.
func resolveExpiry(expiry Expiry, now time.Time, staticInterval time.Duration) (time.Time, int64, error) {
	switch expiry.kind {
	case KindTimed:
		if expiry.at.IsZero() {
			return time.Time{}, 0, NewErrInvalidExpiry("timed expiry requires an absolute deadline")
		}
		return expiry.at, 0, nil
	case KindSliding:
		if expiry.interval <= 0 {
			return time.Time{}, 0, NewErrInvalidExpiry("sliding expiry requires a positive interval")
		}
		return now.Add(expiry.interval), int64(expiry.interval / time.Second), nil
	case KindStatic:
		if staticInterval <= 0 {
			return time.Time{}, 0, NewErrInvalidExpiry("static expiry requires a positive StaticInterval")
		}
		return now.Add(staticInterval), int64(staticInterval / time.Second), nil
	default:
		return time.Time{}, 0, NewErrInvalidExpiry("unknown expiry kind")
	}
}

// Add stores value under (partition, key) with the given lifetime policy
// and parent keys, replacing any existing entry at that address.
func Add[T any](ctx context.Context, e *CacheEngine, partition, key string, value T, expiry Expiry, parentKeys []string) error {
	return e.addInternal(ctx, partition, key, value, expiry, parentKeys)
}

// Get reads (partition, key), decoding it into T. If the entry is sliding
// or static, its expiry is extended in the same pass. A miss, an expired
// entry, or a decode failure all yield a not-present result.
func Get[T any](ctx context.Context, e *CacheEngine, partition, key string) (CacheResult[T], error) {
	var value T
	found, err := e.getInternal(ctx, partition, key, &value)
	if err != nil {
		return CacheResult[T]{}, err
	}
	return CacheResult[T]{Value: value, Present: found}, nil
}

// Peek is Get without the sliding-expiry side effect.
func Peek[T any](ctx context.Context, e *CacheEngine, partition, key string) (CacheResult[T], error) {
	var value T
	found, err := e.peekInternal(ctx, partition, key, &value)
	if err != nil {
		return CacheResult[T]{}, err
	}
	return CacheResult[T]{Value: value, Present: found}, nil
}

// GetItems returns a snapshot of every live entry in partition (every
// partition, if empty), decoded as T, extending sliding expiries as it goes.
func GetItems[T any](ctx context.Context, e *CacheEngine, partition string) ([]ICacheItem[T], error) {
	return snapshotItems[T](ctx, e, partition, true)
}

// PeekItems is GetItems without the sliding-expiry side effect.
func PeekItems[T any](ctx context.Context, e *CacheEngine, partition string) ([]ICacheItem[T], error) {
	return snapshotItems[T](ctx, e, partition, false)
}

func snapshotItems[T any](ctx context.Context, e *CacheEngine, partition string, extend bool) ([]ICacheItem[T], error) {
	rows, err := e.scanRows(ctx, partition)
	if err != nil {
		e.recordErr(err)
		return nil, nil
	}

	out := make([]ICacheItem[T], 0, len(rows))
	for _, r := range rows {
		var value T
		if err := e.codec.decode(encodedValue{
			bytes:      r.valueBytes,
			compressed: r.compressed,
			valueKind:  r.valueKind,
			tamperHash: r.tamperHash,
		}, &value, r.partition, r.key, r.utcCreationSec, r.utcExpirySec, r.intervalSec*int64(time.Second)); err != nil {
			e.recordErr(err)
			continue
		}
		out = append(out, toItem(r, value))
	}

	if extend {
		now := e.clock.Now()
		for _, r := range rows {
			if r.intervalSec <= 0 {
				continue
			}
			newExpiry := now.Add(time.Duration(r.intervalSec) * time.Second).Unix()
			if newExpiry > r.utcExpirySec {
				newHash := computeTamperHash(r.partition, r.key, r.utcCreationSec, newExpiry, r.intervalSec*int64(time.Second), len(r.valueBytes))
				if _, err := e.db.ExecContext(ctx, e.cf.ExtendSQL(), newExpiry, int64(newHash), r.partition, r.key); err != nil {
					e.recordErr(NewErrWriteFailure("GetItems.extend", err))
				}
			}
		}
		e.bumpOpCounter()
	}
	return out, nil
}

// inflightCall coalesces concurrent GetOrAdd misses for the same key into a
// single valueGetter invocation.
type inflightCall struct {
	wg    sync.WaitGroup
	value interface{}
	err   error
}

// GetOrAdd returns the live value at (partition, key) if present; otherwise
// it invokes valueGetter, Adds the result, and returns it. Concurrent misses
// on one engine instance are coalesced into a single valueGetter call; misses
// across engine instances sharing a database are not — the second Add simply
// wins the upsert.
func GetOrAdd[T any](ctx context.Context, e *CacheEngine, partition, key string, expiry Expiry, parentKeys []string, valueGetter func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if result, err := Get[T](ctx, e, partition, key); err != nil {
		return zero, err
	} else if result.Present {
		return result.Value, nil
	}

	inflightKey := e.resolvePartition(partition) + "\x00" + key
	call := &inflightCall{}
	call.wg.Add(1)

	actual, loaded := e.inflight.LoadOrStore(inflightKey, call)
	owner := actual.(*inflightCall)
	if loaded {
		owner.wg.Wait()
		if owner.err != nil {
			return zero, owner.err
		}
		return owner.value.(T), nil
	}

	defer func() {
		e.inflight.Delete(inflightKey)
		owner.wg.Done()
	}()

	value, err := callValueGetter(ctx, valueGetter)
	if err != nil {
		owner.err = err
		return zero, err
	}

	if err := Add[T](ctx, e, partition, key, value, expiry, parentKeys); err != nil {
		owner.err = err
		return zero, err
	}

	owner.value = value
	return value, nil
}

func callValueGetter[T any](ctx context.Context, valueGetter func(ctx context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered("GetOrAdd.valueGetter", r)
		}
	}()
	return valueGetter(ctx)
}
