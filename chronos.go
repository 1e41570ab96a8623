// chronos.go: package-wide defaults and version constant
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package chronos

import "time"

const (
	// Version of the Chronos cache engine.
	Version = "v0.1.0-dev"

	// DefaultPartition is used when a caller passes an empty partition name.
	DefaultPartition = "__default__"

	// DefaultStaticInterval is the lifetime applied to static entries.
	DefaultStaticInterval = 30 * 24 * time.Hour

	// DefaultMinValueLengthForCompression is the encoded-value size, in
	// bytes, below which the compressor is bypassed.
	DefaultMinValueLengthForCompression = 4096

	// MaxParentKeyColumns is the hard schema limit on parent-key edges per
	// entry. Settings.MaxParentKeyCountPerItem must not exceed it.
	MaxParentKeyColumns = 5

	// DefaultMaxParentKeyCountPerItem is the default cap enforced at Add.
	DefaultMaxParentKeyCountPerItem = MaxParentKeyColumns

	// DefaultOperationCountBeforeSoftCleanup is the hard-cleanup cadence.
	DefaultOperationCountBeforeSoftCleanup = 1000

	// DefaultChancesOfAutoCleanup is the denominator of the probabilistic
	// soft-cleanup trigger (1 in N operations).
	DefaultChancesOfAutoCleanup = 10

	// DefaultDistributedCacheAbsoluteExpiration is applied by the
	// distributed-cache adapter when the caller sets no expiration option.
	DefaultDistributedCacheAbsoluteExpiration = 20 * time.Minute

	// DefaultMaxValueSize caps the encoded value size enforced at Add.
	DefaultMaxValueSize = 16 << 20 // 16 MiB

	// DefaultWriteRetries bounds the retry count on transient write conflicts.
	DefaultWriteRetries = 3
)
