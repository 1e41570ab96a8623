// Package distributed adapts CacheEngine to the flat-namespace, byte-value
// shape a distributed-cache client expects, mapping every key into the
// reserved partition __distributedCache__.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"context"
	"time"

	"github.com/agilira/chronos"
)

// partition is the reserved namespace backing every distributed-cache key.
// It differs from the default DefaultPartition value; the engine does not
// prevent a caller from addressing the same partition name directly.
const partition = "__distributedCache__"

// Options selects at most one expiration policy for Set. The zero value
// requests chronos.DefaultDistributedCacheAbsoluteExpiration.
type Options struct {
	// SlidingExpiration extends the entry's lifetime by this duration on
	// every Refresh/Get.
	SlidingExpiration time.Duration

	// AbsoluteExpiration is a fixed deadline.
	AbsoluteExpiration time.Time

	// AbsoluteExpirationRelativeToNow sets the deadline at Set time plus
	// this duration.
	AbsoluteExpirationRelativeToNow time.Duration
}

func (o Options) setCount() int {
	n := 0
	if o.SlidingExpiration > 0 {
		n++
	}
	if !o.AbsoluteExpiration.IsZero() {
		n++
	}
	if o.AbsoluteExpirationRelativeToNow > 0 {
		n++
	}
	return n
}

// Adapter is a minimal distributed-cache client backed by a CacheEngine.
type Adapter struct {
	engine *chronos.CacheEngine
}

// New wraps engine as a distributed-cache adapter. engine is shared with
// any other partitions the caller uses directly; __distributedCache__ is
// reserved for this adapter alone.
func New(engine *chronos.CacheEngine) *Adapter {
	return &Adapter{engine: engine}
}

func (a *Adapter) resolveExpiry(opts Options) (chronos.Expiry, error) {
	switch opts.setCount() {
	case 0:
		return chronos.Timed(time.Now().UTC().Add(chronos.DefaultDistributedCacheAbsoluteExpiration)), nil
	case 1:
		switch {
		case opts.SlidingExpiration > 0:
			return chronos.Sliding(opts.SlidingExpiration), nil
		case !opts.AbsoluteExpiration.IsZero():
			return chronos.Timed(opts.AbsoluteExpiration), nil
		default:
			return chronos.Timed(time.Now().UTC().Add(opts.AbsoluteExpirationRelativeToNow)), nil
		}
	default:
		return chronos.Expiry{}, chronos.NewErrInvalidExpiry(
			"at most one of SlidingExpiration, AbsoluteExpiration, AbsoluteExpirationRelativeToNow may be set")
	}
}

// Get returns the bytes stored under key, or ok=false if absent or expired.
func (a *Adapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := chronos.Get[[]byte](ctx, a.engine, partition, key)
	if err != nil {
		return nil, false, err
	}
	return result.Value, result.Present, nil
}

// Set stores value under key with the expiration policy in opts. opts must
// carry at most one expiration option; violating that is an invalid-
// argument error.
func (a *Adapter) Set(ctx context.Context, key string, value []byte, opts Options) error {
	expiry, err := a.resolveExpiry(opts)
	if err != nil {
		return err
	}
	return chronos.Add(ctx, a.engine, partition, key, value, expiry, nil)
}

// Refresh is a read that discards its result, extending a sliding entry's
// lifetime without the caller needing the value.
func (a *Adapter) Refresh(ctx context.Context, key string) error {
	_, err := chronos.Get[[]byte](ctx, a.engine, partition, key)
	return err
}

// Remove deletes key, cascading to any dependents (the adapter stores no
// parent-key relationships of its own, so this is always a single-row
// delete in practice).
func (a *Adapter) Remove(ctx context.Context, key string) error {
	return a.engine.Remove(ctx, partition, key)
}

// GetAsync mirrors Get for callers that prefer a channel-based async style;
// it runs Get in its own goroutine and never blocks the caller beyond the
// channel send.
func (a *Adapter) GetAsync(ctx context.Context, key string) <-chan AsyncGetResult {
	out := make(chan AsyncGetResult, 1)
	go func() {
		value, ok, err := a.Get(ctx, key)
		out <- AsyncGetResult{Value: value, Present: ok, Err: err}
	}()
	return out
}

// SetAsync mirrors Set asynchronously.
func (a *Adapter) SetAsync(ctx context.Context, key string, value []byte, opts Options) <-chan error {
	out := make(chan error, 1)
	go func() { out <- a.Set(ctx, key, value, opts) }()
	return out
}

// AsyncGetResult is the payload delivered on Adapter.GetAsync's channel.
type AsyncGetResult struct {
	Value   []byte
	Present bool
	Err     error
}
