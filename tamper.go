// tamper.go: non-cryptographic integrity check over a stored entry's
// identifying fields
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"encoding/binary"
	"hash/crc32"
	"hash/fnv"
)

// computeTamperHash derives a 64-bit integrity value over the fields that
// identify a row, the way metis seeds its eviction hash from crc32.ChecksumIEEE
// but widened to 64 bits and composed with fnv64a so value-length changes
// alone still flip the hash. It is not a cryptographic authenticator; it
// only catches accidental corruption or a row edited outside Chronos.
func computeTamperHash(partition, key string, utcCreationSec, utcExpirySec int64, intervalNanos int64, valueLen int) uint64 {
	var buf [8]byte

	upper := crc32.NewIEEE()
	upper.Write([]byte(partition))
	upper.Write([]byte{0})
	upper.Write([]byte(key))
	binary.LittleEndian.PutUint64(buf[:], uint64(utcCreationSec))
	upper.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(utcExpirySec))
	upper.Write(buf[:])

	lower := fnv.New64a()
	binary.LittleEndian.PutUint64(buf[:], uint64(intervalNanos))
	lower.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(valueLen))
	lower.Write(buf[:])
	lower.Write([]byte(partition))
	lower.Write([]byte(key))

	return uint64(upper.Sum32())<<32 | uint64(uint32(lower.Sum64()))
}

// verifyTamperHash reports whether want matches the hash recomputed from the
// same fields.
func verifyTamperHash(want uint64, partition, key string, utcCreationSec, utcExpirySec int64, intervalNanos int64, valueLen int) bool {
	return want == computeTamperHash(partition, key, utcCreationSec, utcExpirySec, intervalNanos, valueLen)
}
