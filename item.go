// item.go: the internal row model and parent-key column helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"database/sql"
	"time"
)

// row is the scanned shape of one entries row, before the codec has
// decoded value bytes into a caller-facing type.
type row struct {
	partition       string
	key             string
	utcCreationSec  int64
	utcExpirySec    int64
	intervalSec     int64
	valueBytes      []byte
	compressed      bool
	valueKind       string
	parentKeys      [MaxParentKeyColumns]sql.NullString
	tamperHash      uint64
}

// kind derives the caller-facing EntryKind from intervalSec, matching the
// "entry kinds are a view over (interval, utc_expiry)".
func (r row) kind() EntryKind {
	if r.intervalSec <= 0 {
		return KindTimed
	}
	return KindSliding
}

// liveParentKeys strips the unused fixed-width columns and returns the
// ordered, non-empty parent keys actually set on the row.
func (r row) liveParentKeys() []string {
	out := make([]string, 0, MaxParentKeyColumns)
	for _, pk := range r.parentKeys {
		if pk.Valid && pk.String != "" {
			out = append(out, pk.String)
		}
	}
	return out
}

// toItem converts a decoded value and its row into a public ICacheItem
// snapshot (GetItems/PeekItems).
func toItem[T any](r row, value T) ICacheItem[T] {
	return ICacheItem[T]{
		Partition:   r.partition,
		Key:         r.key,
		Value:       value,
		Kind:        r.kind(),
		UTCCreation: time.Unix(r.utcCreationSec, 0).UTC(),
		UTCExpiry:   time.Unix(r.utcExpirySec, 0).UTC(),
		Interval:    time.Duration(r.intervalSec) * time.Second,
		ParentKeys:  r.liveParentKeys(),
	}
}

// fixedParentKeyColumns pads or rejects parents against MaxParentKeyColumns,
// returning the fixed-width argument list an Upsert statement expects.
// Callers must validate len(parents) against Settings.MaxParentKeyCountPerItem
// before calling this; it only enforces the hard schema limit.
func fixedParentKeyColumns(parents []string) ([MaxParentKeyColumns]interface{}, error) {
	var out [MaxParentKeyColumns]interface{}
	if len(parents) > MaxParentKeyColumns {
		return out, NewErrTooManyParents(len(parents), MaxParentKeyColumns)
	}
	for i := 0; i < MaxParentKeyColumns; i++ {
		if i < len(parents) {
			out[i] = parents[i]
		} else {
			out[i] = nil
		}
	}
	return out, nil
}

// buildInClausePlaceholders asks cf to render n placeholders starting at
// parameter index start, joined the way a SQL IN (...) clause expects.
func buildInClausePlaceholders(cf ConnectionFactory, start, n int) string {
	if n == 0 {
		return ""
	}
	return cf.Placeholders(start, n)
}

// stringsToAny widens a []string to []interface{} for variadic SQL args.
func stringsToAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
