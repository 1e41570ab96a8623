// codec.go: Serializer -> optional Compressor -> tamper field pipeline
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

// encodedValue is what ValueCodec.Encode produces and ConnectionFactory
// persists alongside a row's other columns.
type encodedValue struct {
	bytes       []byte
	compressed  bool
	valueKind   string
	tamperHash  uint64
}

// valueCodec runs the write-side pipeline: serialize, then
// compress when the serialized form is large enough to be worth it, then
// seal the result with a tamper hash computed over the row's identifying
// fields. decode reverses it, rejecting on hash mismatch before ever
// touching the decompressor or deserializer.
type valueCodec struct {
	serializer Serializer
	compressor Compressor
	minLenForCompression int
}

func newValueCodec(serializer Serializer, compressor Compressor, minLenForCompression int) *valueCodec {
	return &valueCodec{
		serializer:            serializer,
		compressor:            compressor,
		minLenForCompression:  minLenForCompression,
	}
}

// canEncode reports whether value's runtime type can round-trip through the
// configured serializer (Add rejects values whose runtime type the
// serializer cannot round-trip").
func (c *valueCodec) canEncode(value interface{}) bool {
	return c.serializer.CanEncode(value)
}

// encode runs value through serialize -> optional compress -> tamper hash.
// partition, key and the row's temporal fields are folded into the tamper
// hash so a row copied to a different key, or whose expiry was edited out
// of band, fails verification on read.
func (c *valueCodec) encode(value interface{}, partition, key string, utcCreationSec, utcExpirySec, intervalNanos int64) (encodedValue, error) {
	raw, err := c.serializer.Encode(value)
	if err != nil {
		return encodedValue{}, NewErrUnencodableValue(key, err)
	}

	out := raw
	compressed := false
	if c.compressor != nil && len(raw) > c.minLenForCompression {
		compressedBytes, err := c.compressor.Compress(raw)
		if err != nil {
			return encodedValue{}, NewErrUnencodableValue(key, err)
		}
		out = compressedBytes
		compressed = true
	}

	hash := computeTamperHash(partition, key, utcCreationSec, utcExpirySec, intervalNanos, len(out))

	return encodedValue{
		bytes:      out,
		compressed: compressed,
		valueKind:  c.serializer.Name(),
		tamperHash: hash,
	}, nil
}

// decode reverses encode. A tamper mismatch is reported as a decode
// failure (reject on mismatch, treat as absent); the
// caller is responsible for translating that into an absent CacheResult
// rather than propagating a hard error for ordinary reads.
func (c *valueCodec) decode(ev encodedValue, target interface{}, partition, key string, utcCreationSec, utcExpirySec, intervalNanos int64) error {
	if !verifyTamperHash(ev.tamperHash, partition, key, utcCreationSec, utcExpirySec, intervalNanos, len(ev.bytes)) {
		return NewErrTamperDetected(partition, key)
	}

	raw := ev.bytes
	if ev.compressed {
		if c.compressor == nil {
			return NewErrDecodeFailure(partition, key, nil)
		}
		decompressed, err := c.compressor.Decompress(ev.bytes)
		if err != nil {
			return NewErrDecodeFailure(partition, key, err)
		}
		raw = decompressed
	}

	if err := c.serializer.Decode(raw, target); err != nil {
		return NewErrDecodeFailure(partition, key, err)
	}
	return nil
}
