// config_test.go: unit tests for Chronos configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chronos

import (
	"testing"
	"time"
)

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "empty settings default the parent cap and keep zero write retries",
			in:   Settings{},
			want: Settings{MaxParentKeyCountPerItem: DefaultMaxParentKeyCountPerItem, WriteRetries: 0},
		},
		{
			name: "negative parent cap falls back to default",
			in:   Settings{MaxParentKeyCountPerItem: -1},
			want: Settings{MaxParentKeyCountPerItem: DefaultMaxParentKeyCountPerItem},
		},
		{
			name: "parent cap above the schema limit falls back to default",
			in:   Settings{MaxParentKeyCountPerItem: MaxParentKeyColumns + 1},
			want: Settings{MaxParentKeyCountPerItem: DefaultMaxParentKeyCountPerItem},
		},
		{
			name: "valid parent cap preserved",
			in:   Settings{MaxParentKeyCountPerItem: 3},
			want: Settings{MaxParentKeyCountPerItem: 3},
		},
		{
			name: "negative write retries falls back to default",
			in:   Settings{WriteRetries: -5},
			want: Settings{WriteRetries: DefaultWriteRetries},
		},
		{
			name: "zero write retries is preserved",
			in:   Settings{WriteRetries: 0},
			want: Settings{WriteRetries: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if tt.in.MaxParentKeyCountPerItem != tt.want.MaxParentKeyCountPerItem {
				t.Errorf("MaxParentKeyCountPerItem = %v, want %v", tt.in.MaxParentKeyCountPerItem, tt.want.MaxParentKeyCountPerItem)
			}
			if tt.in.WriteRetries != tt.want.WriteRetries {
				t.Errorf("WriteRetries = %v, want %v", tt.in.WriteRetries, tt.want.WriteRetries)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.DefaultPartition != DefaultPartition {
		t.Errorf("DefaultPartition = %v, want %v", s.DefaultPartition, DefaultPartition)
	}
	if s.StaticInterval != DefaultStaticInterval {
		t.Errorf("StaticInterval = %v, want %v", s.StaticInterval, DefaultStaticInterval)
	}
	if s.MaxParentKeyCountPerItem != DefaultMaxParentKeyCountPerItem {
		t.Errorf("MaxParentKeyCountPerItem = %v, want %v", s.MaxParentKeyCountPerItem, DefaultMaxParentKeyCountPerItem)
	}
	if s.MaxValueSize != DefaultMaxValueSize {
		t.Errorf("MaxValueSize = %v, want %v", s.MaxValueSize, DefaultMaxValueSize)
	}
}

func TestSettingsStore_UpdateNotifiesSubscribers(t *testing.T) {
	store := NewSettingsStore(DefaultSettings())

	var gotOld, gotUpdated Settings
	calls := 0
	cancel := store.OnChange(func(old, updated Settings) {
		calls++
		gotOld = old
		gotUpdated = updated
	})
	defer cancel()

	updated := store.Update(func(s *Settings) {
		s.StaticInterval = 5 * time.Minute
	})

	if calls != 1 {
		t.Fatalf("expected 1 subscriber call, got %d", calls)
	}
	if gotOld.StaticInterval != DefaultStaticInterval {
		t.Errorf("old.StaticInterval = %v, want %v", gotOld.StaticInterval, DefaultStaticInterval)
	}
	if gotUpdated.StaticInterval != 5*time.Minute {
		t.Errorf("updated.StaticInterval = %v, want 5m", gotUpdated.StaticInterval)
	}
	if store.Get().StaticInterval != updated.StaticInterval {
		t.Errorf("Get() did not reflect the update")
	}
}

func TestSettingsStore_UpdateValidatesResult(t *testing.T) {
	store := NewSettingsStore(DefaultSettings())

	updated := store.Update(func(s *Settings) {
		s.MaxParentKeyCountPerItem = 999
	})

	if updated.MaxParentKeyCountPerItem != DefaultMaxParentKeyCountPerItem {
		t.Errorf("invalid MaxParentKeyCountPerItem was not normalized, got %v", updated.MaxParentKeyCountPerItem)
	}
}

func TestSettingsStore_CancelSubscription(t *testing.T) {
	store := NewSettingsStore(DefaultSettings())

	calls := 0
	cancel := store.OnChange(func(old, updated Settings) { calls++ })
	cancel()

	store.Update(func(s *Settings) { s.WriteRetries = 7 })

	if calls != 0 {
		t.Errorf("expected cancelled subscriber not to be called, got %d calls", calls)
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NoOpLogger{}

	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")

	logger.Debug("test", "key", "value")
	logger.Info("test", "key", "value")
	logger.Warn("test", "key", "value")
	logger.Error("test", "key", "value")
}

func TestSystemClock(t *testing.T) {
	clock := systemClock{}

	now1 := clock.Now()
	if now1.IsZero() {
		t.Fatal("expected a non-zero timestamp")
	}

	oneYearAgo := time.Now().Add(-365 * 24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)
	if now1.Before(oneYearAgo) || now1.After(tomorrow) {
		t.Errorf("timestamp out of reasonable range: %v", now1)
	}

	now2 := clock.Now()
	if now2.Before(now1) {
		t.Errorf("time should not go backwards: now1=%v, now2=%v", now1, now2)
	}
}
