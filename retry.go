// retry.go: bounded retry with jittered backoff for transient write
// conflicts, the same attempt-count-plus-growing-delay shape as
// 2lar-b2's UpdateNodeWithRetry, adapted to chronos's own retryable-error
// classification instead of a repository-specific conflict check.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"context"
	"time"
)

const retryBaseDelay = 4 * time.Millisecond

// withWriteRetries runs fn, retrying while its error is retryable, up to
// Settings.WriteRetries additional attempts with a small jittered backoff
// between them. The first attempt always runs; fn's own error, retryable or
// not, is returned once attempts are exhausted.
func (e *CacheEngine) withWriteRetries(ctx context.Context, fn func() error) error {
	maxRetries := e.settings.Get().WriteRetries

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt >= maxRetries {
			return err
		}
		if waitErr := e.backoff(ctx, attempt); waitErr != nil {
			return err
		}
	}
}

// backoff sleeps a base delay that grows with attempt, plus jitter, or
// returns ctx.Err() if ctx is cancelled first.
func (e *CacheEngine) backoff(ctx context.Context, attempt int) error {
	delay := retryBaseDelay * time.Duration(attempt+1)
	jitter := time.Duration(e.random.Intn(int(retryBaseDelay/time.Millisecond)+1)) * time.Millisecond

	timer := time.NewTimer(delay + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// runInTx runs fn inside a transaction on e.db, committing on success and
// rolling back on any error fn returns (or on Commit itself failing).
func (e *CacheEngine) runInTx(ctx context.Context, op string, fn func(tx TargetQuerier) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return NewErrCancelled(op, ctx.Err())
		}
		return NewErrWriteFailure(op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return NewErrCancelled(op, ctx.Err())
		}
		return NewErrWriteFailure(op, err)
	}
	return nil
}
