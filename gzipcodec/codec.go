// Package gzipcodec implements chronos.Compressor with compress/gzip,
// grounded on metis's compressGzipWithHeader/decompressGzipWithHeader pair.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package gzipcodec

import (
	"bytes"
	"compress/gzip"
	"io"
)

// Compressor wraps compress/gzip behind chronos.Compressor.
type Compressor struct {
	// Level is the gzip compression level; 0 selects gzip.DefaultCompression.
	Level int
}

// New returns a Compressor using gzip.DefaultCompression.
func New() *Compressor { return &Compressor{Level: gzip.DefaultCompression} }

func (Compressor) Name() string { return "gzip" }

func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	level := c.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
