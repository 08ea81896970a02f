// Package compress provides transparent frame compression for input and
// output payloads.
//
// Inputs are sniffed by magic bytes, so callers never declare how a
// payload was compressed. Outputs use standard self-describing frame
// formats (zstd, gzip, lz4) that downstream tooling can unwrap.
package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a compression container.
type Type uint8

const (
	// None passes data through untouched.
	None Type = iota
	// Zstd is a zstandard frame (best ratio/speed balance).
	Zstd
	// Gzip is a gzip stream (most portable).
	Gzip
	// LZ4 is an lz4 frame (fastest).
	LZ4
)

func (t Type) String() string {
	switch t {
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// Extension returns the conventional file suffix, including the dot,
// or "" for None.
func (t Type) Extension() string {
	switch t {
	case Zstd:
		return ".zst"
	case Gzip:
		return ".gz"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseType resolves a configuration string to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "none":
		return None, nil
	case "zstd", "zst":
		return Zstd, nil
	case "gzip", "gz":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("unknown compression type %q", s)
	}
}

var (
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicGzip = []byte{0x1f, 0x8b}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Sniff identifies the compression container by magic bytes.
func Sniff(data []byte) Type {
	switch {
	case bytes.HasPrefix(data, magicZstd):
		return Zstd
	case bytes.HasPrefix(data, magicGzip):
		return Gzip
	case bytes.HasPrefix(data, magicLZ4):
		return LZ4
	default:
		return None
	}
}

// Encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Decode sniffs data and unwraps one compression layer. Plain payloads
// pass through with Type None.
func Decode(data []byte) ([]byte, Type, error) {
	t := Sniff(data)
	switch t {
	case Zstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, t, fmt.Errorf("zstd decode: %w", err)
		}
		return out, t, nil

	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, t, fmt.Errorf("gzip decode: %w", err)
		}
		defer zr.Close()

		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, t, fmt.Errorf("gzip decode: %w", err)
		}
		return out, t, nil

	case LZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, t, fmt.Errorf("lz4 decode: %w", err)
		}
		return out, t, nil

	default:
		return data, None, nil
	}
}

// Encode wraps data in the requested compression container.
func Encode(data []byte, t Type) ([]byte, error) {
	switch t {
	case None:
		return data, nil

	case Zstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)

		return enc.EncodeAll(data, nil), nil

	case Gzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip encode: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip encode: %w", err)
		}
		return buf.Bytes(), nil

	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 encode: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4 encode: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown compression type %d", t)
	}
}
