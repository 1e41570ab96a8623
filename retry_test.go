// retry_test.go: unit tests for withWriteRetries/backoff
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chronos

import (
	"context"
	"errors"
	"testing"
)

func newRetryTestEngine(writeRetries int) *CacheEngine {
	return &CacheEngine{
		settings: NewSettingsStore(Settings{WriteRetries: writeRetries}),
		random:   newDefaultRandom(),
	}
}

func TestWithWriteRetries_SucceedsWithoutRetryOnNilError(t *testing.T) {
	e := newRetryTestEngine(3)
	calls := 0
	err := e.withWriteRetries(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("withWriteRetries: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWithWriteRetries_RetriesRetryableErrorUpToBound(t *testing.T) {
	e := newRetryTestEngine(2)
	calls := 0
	err := e.withWriteRetries(context.Background(), func() error {
		calls++
		return NewErrWriteFailure("test", errors.New("conflict"))
	})
	if err == nil {
		t.Fatal("withWriteRetries: want error, got nil")
	}
	if want := 3; calls != want { // first attempt + 2 retries
		t.Fatalf("calls = %d, want %d", calls, want)
	}
}

func TestWithWriteRetries_StopsEarlyOnSuccess(t *testing.T) {
	e := newRetryTestEngine(5)
	calls := 0
	err := e.withWriteRetries(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewErrWriteFailure("test", errors.New("conflict"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withWriteRetries: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestWithWriteRetries_DoesNotRetryNonRetryableError(t *testing.T) {
	e := newRetryTestEngine(5)
	calls := 0
	want := NewErrEmptyKey("test")
	err := e.withWriteRetries(context.Background(), func() error {
		calls++
		return want
	})
	if err != want {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWithWriteRetries_CancelledContextStopsRetryLoop(t *testing.T) {
	e := newRetryTestEngine(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := e.withWriteRetries(ctx, func() error {
		calls++
		return NewErrWriteFailure("test", errors.New("conflict"))
	})
	if err == nil {
		t.Fatal("withWriteRetries: want error, got nil")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (backoff should abort on a cancelled context)", calls)
	}
}
