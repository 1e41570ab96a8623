// config.go: typed, observable configuration surface
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package chronos

import (
	"sync"
	"time"
)

// Settings is the typed configuration surface for a CacheEngine. It is
// a plain value type; SettingsStore is what makes it mutable and observable.
type Settings struct {
	// DefaultPartition is used when a caller passes an empty partition.
	DefaultPartition string

	// StaticInterval is the lifetime applied to static entries.
	StaticInterval time.Duration

	// MinValueLengthForCompression: encoded values shorter than this are
	// stored uncompressed.
	MinValueLengthForCompression int

	// MaxParentKeyCountPerItem caps the parent keys accepted by Add. Must
	// not exceed MaxParentKeyColumns.
	MaxParentKeyCountPerItem int

	// OperationCountBeforeSoftCleanup is the hard-cleanup cadence.
	OperationCountBeforeSoftCleanup int

	// ChancesOfAutoCleanup is the denominator of the probabilistic
	// soft-cleanup trigger (1 in N operations).
	ChancesOfAutoCleanup int

	// DefaultDistributedCacheAbsoluteExpiration is validated and hot-reloaded
	// like the other settings, but the distributed-cache adapter does not
	// read it: when no expiration option is set, the adapter applies the
	// package constant DefaultDistributedCacheAbsoluteExpiration.
	DefaultDistributedCacheAbsoluteExpiration time.Duration

	// MaxValueSize caps the encoded value size enforced at Add.
	MaxValueSize int64

	// WriteRetries bounds the retry count on transient write conflicts.
	WriteRetries int
}

// DefaultSettings returns Chronos's recommended starting configuration.
func DefaultSettings() Settings {
	return Settings{
		DefaultPartition:                          DefaultPartition,
		StaticInterval:                            DefaultStaticInterval,
		MinValueLengthForCompression:               DefaultMinValueLengthForCompression,
		MaxParentKeyCountPerItem:                   DefaultMaxParentKeyCountPerItem,
		OperationCountBeforeSoftCleanup:            DefaultOperationCountBeforeSoftCleanup,
		ChancesOfAutoCleanup:                       DefaultChancesOfAutoCleanup,
		DefaultDistributedCacheAbsoluteExpiration:  DefaultDistributedCacheAbsoluteExpiration,
		MaxValueSize:                               DefaultMaxValueSize,
		WriteRetries:                               DefaultWriteRetries,
	}
}

// Validate normalizes s in place, replacing out-of-range values with
// defaults. It never returns a non-nil error; the error return exists so a
// future validation rule that legitimately fails (e.g. a setting with no
// sane default) can be added without breaking callers.
func (s *Settings) Validate() error {
	if s.DefaultPartition == "" {
		s.DefaultPartition = DefaultPartition
	}
	if s.StaticInterval <= 0 {
		s.StaticInterval = DefaultStaticInterval
	}
	if s.MinValueLengthForCompression < 0 {
		s.MinValueLengthForCompression = DefaultMinValueLengthForCompression
	}
	if s.MaxParentKeyCountPerItem <= 0 || s.MaxParentKeyCountPerItem > MaxParentKeyColumns {
		s.MaxParentKeyCountPerItem = DefaultMaxParentKeyCountPerItem
	}
	if s.OperationCountBeforeSoftCleanup <= 0 {
		s.OperationCountBeforeSoftCleanup = DefaultOperationCountBeforeSoftCleanup
	}
	if s.ChancesOfAutoCleanup <= 0 {
		s.ChancesOfAutoCleanup = DefaultChancesOfAutoCleanup
	}
	if s.DefaultDistributedCacheAbsoluteExpiration <= 0 {
		s.DefaultDistributedCacheAbsoluteExpiration = DefaultDistributedCacheAbsoluteExpiration
	}
	if s.MaxValueSize <= 0 {
		s.MaxValueSize = DefaultMaxValueSize
	}
	if s.WriteRetries < 0 {
		s.WriteRetries = DefaultWriteRetries
	}
	return nil
}

// SettingsStore holds a live Settings value and notifies subscribers on
// every mutation. Subscribers must not
// hold the engine's locks while being called back.
type SettingsStore struct {
	mu        sync.RWMutex
	current   Settings
	observers []func(old, updated Settings)
}

// NewSettingsStore creates a store seeded with initial, validated in place.
func NewSettingsStore(initial Settings) *SettingsStore {
	_ = initial.Validate()
	return &SettingsStore{current: initial}
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies mutate to a copy of the current settings, validates it,
// stores it, and fires every subscriber with (old, updated). Subscribers run
// synchronously but outside the store's lock.
func (s *SettingsStore) Update(mutate func(*Settings)) Settings {
	s.mu.Lock()
	old := s.current
	updated := s.current
	mutate(&updated)
	_ = updated.Validate()
	s.current = updated
	subscribers := append([]func(Settings, Settings){}, s.asSlice()...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(old, updated)
	}
	return updated
}

// asSlice must be called with s.mu held.
func (s *SettingsStore) asSlice() []func(Settings, Settings) {
	return s.observers
}

// OnChange registers fn to be called after every Update. It returns a
// cancel function that removes the subscription.
func (s *SettingsStore) OnChange(fn func(old, updated Settings)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
	idx := len(s.observers) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.observers) {
			s.observers[idx] = func(Settings, Settings) {}
		}
	}
}
