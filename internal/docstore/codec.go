// Package docstore implements the append-only, independently-compressed
// document blob store (spec.md §3 "Document store", §6 docstore.bin).
package docstore

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/mostynb/zstdpool-freelist"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the per-record compression used, stored as a one-byte
// field of each record's sidecar entry so records within one store can use
// different codecs over its lifetime (e.g. after a codec change in config).
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecSnappy
	CodecLZ4
)

// zstdDecoderPool/zstdEncoderPool mirror the teacher's
// gsfa/linkedlog/compress.go pooling pattern: zstd encoder/decoder state
// is expensive to allocate, so it is pooled across calls via the same
// third-party freelist the teacher depends on.
var zstdDecoderPool = zstdpool.NewDecoderPool()
var zstdEncoderPool = zstdpool.NewEncoderPool(
	zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
)

func compress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecZstd:
		enc, err := zstdEncoderPool.Get(nil)
		if err != nil {
			return nil, fmt.Errorf("docstore: get zstd encoder: %w", err)
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	case CodecSnappy:
		return snappy.Encode(nil, data), nil
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		var c lz4.Compressor
		n, err := c.CompressBlock(data, buf)
		if err != nil {
			return nil, fmt.Errorf("docstore: lz4 compress: %w", err)
		}
		if n == 0 {
			// Incompressible input: lz4 signals this by writing zero bytes.
			// Fall back to storing the block uncompressed with its own tag.
			return nil, errIncompressible
		}
		return buf[:n], nil
	default:
		return nil, fmt.Errorf("docstore: unknown codec %d", codec)
	}
}

var errIncompressible = fmt.Errorf("docstore: lz4 block incompressible")

func decompress(codec Codec, data []byte, decodedLen int) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecZstd:
		dec, err := zstdDecoderPool.Get(nil)
		if err != nil {
			return nil, fmt.Errorf("docstore: get zstd decoder: %w", err)
		}
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(data, nil)
	case CodecSnappy:
		return snappy.Decode(nil, data)
	case CodecLZ4:
		buf := make([]byte, decodedLen)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			return nil, fmt.Errorf("docstore: lz4 decompress: %w", err)
		}
		return buf[:n], nil
	default:
		return nil, fmt.Errorf("docstore: unknown codec %d", codec)
	}
}
