package storage

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to a snapshot payload.
type Compression uint8

const (
	// CompressionNone stores the payload as encoded.
	CompressionNone Compression = 0
	// CompressionSnappy uses Snappy block compression.
	CompressionSnappy Compression = 1
	// CompressionLZ4 uses the LZ4 frame format (fast).
	CompressionLZ4 Compression = 2
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 3
	// CompressionZlib uses zlib.
	CompressionZlib Compression = 4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionZlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "zlib":
		return CompressionZlib, nil
	default:
		return CompressionNone, fmt.Errorf("%w: compression %q", ErrUnsupportedCodec, s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionSnappy:
		return snappy.Encode(nil, data), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 close: %w", err)
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil

	case CompressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zlib write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("zlib close: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedCodec, c)
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionSnappy:
		return snappy.Decode(nil, data)

	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))

	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(data, nil)

	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		return io.ReadAll(r)

	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedCodec, c)
	}
}
