// Package gobcodec implements chronos.Serializer with encoding/gob,
// grounded on metis's gob.Register-based value encoding.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package gobcodec

import (
	"bytes"
	"encoding/gob"
	"reflect"
)

func init() {
	gob.Register(int(0))
	gob.Register(int32(0))
	gob.Register(int64(0))
	gob.Register(uint(0))
	gob.Register(uint32(0))
	gob.Register(uint64(0))
	gob.Register(float32(0))
	gob.Register(float64(0))
	gob.Register(bool(false))
	gob.Register(string(""))
	gob.Register([]byte{})
	gob.Register(map[string]interface{}{})
	gob.Register(map[string]string{})
	gob.Register([]interface{}{})
	gob.Register([]string{})
}

// Serializer encodes and decodes values with encoding/gob. Gob requires
// concrete, exported-field structs; CanEncode reports false for channels,
// funcs, and unexported-only types that gob would reject outright.
type Serializer struct{}

// New returns a ready-to-use Serializer.
func New() *Serializer { return &Serializer{} }

func (Serializer) Name() string { return "gob" }

// CanEncode reports whether value's runtime type is one gob can round-trip.
// It is a best-effort check: gob itself is the final authority, surfaced
// through Encode's error. gob.NewEncoder.Encode rejects a bare nil
// interface outright, so this serializer does not admit the null value.
func (Serializer) CanEncode(value interface{}) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	default:
		return true
	}
}

func (Serializer) Encode(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Serializer) Decode(data []byte, target interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
