// maintenance.go: background purge scheduling
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// bumpOpCounter increments the per-instance operation counter and schedules
// a purge if either the hard or the soft/probabilistic trigger fires. It is
// called on every Add, Remove, sliding-extending Get, and GetOrAdd that
// added.
func (e *CacheEngine) bumpOpCounter() {
	settings := e.settings.Get()

	count := atomic.AddInt64(&e.opCounter, 1)
	if count >= int64(settings.OperationCountBeforeSoftCleanup) {
		if atomic.CompareAndSwapInt64(&e.opCounter, count, 0) {
			e.schedulePurge()
			return
		}
	}

	if settings.ChancesOfAutoCleanup > 0 && e.random.Intn(settings.ChancesOfAutoCleanup) == 0 {
		e.schedulePurge()
	}
}

// schedulePurge enqueues a purge without blocking the caller; a pending
// purge already in the channel absorbs the new request (purges must
// never block a caller's operation").
func (e *CacheEngine) schedulePurge() {
	select {
	case e.purgeCh <- struct{}{}:
	default:
	}
}

// startMaintenanceWorker launches the single long-lived background task
// that drains purgeCh and runs the purge statement (a single
// long-lived task per engine; callers never wait on it").
func (e *CacheEngine) startMaintenanceWorker() {
	e.closeWg.Add(1)
	go func() {
		defer e.closeWg.Done()
		for {
			select {
			case <-e.closeCh:
				return
			case <-e.purgeCh:
				e.runPurgeCycle()
			}
		}
	}()
}

func (e *CacheEngine) runPurgeCycle() {
	defer func() {
		if r := recover(); r != nil {
			e.recordErr(NewErrPanicRecovered("purge", r))
		}
	}()

	cycleID := uuid.NewString()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := e.db.ExecContext(ctx, e.cf.PurgeSQL(), e.clock.Now().Unix())
	if err != nil {
		e.recordErr(NewErrWriteFailure("purge", err))
		e.logger.Warn("purge cycle failed", "cycle_id", cycleID, "error", err)
		return
	}

	deleted, _ := res.RowsAffected()
	e.metrics.RecordPurge(deleted, time.Since(start).Nanoseconds())
	e.logger.Debug("purge cycle complete", "cycle_id", cycleID, "deleted", deleted,
		"duration_ms", time.Since(start).Milliseconds())
}
