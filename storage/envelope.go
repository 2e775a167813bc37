package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Snapshot file layout, little endian:
//
//	magic "KGR1" | version u8 | flags u8 | compression u8 |
//	codec name len u8 | codec name | id [16]byte | created unix nanos i64 |
//	[salt [32]byte if sealed] | payload len u64 | payload | xxh3 u64
//
// The checksum covers every byte before it.
const (
	magic           = "KGR1"
	envelopeVersion = 1

	flagSealed = 1 << 0

	checksumSize = 8
)

// header describes a snapshot file.
type header struct {
	Version     uint8
	Sealed      bool
	Compression Compression
	Codec       string
	ID          uuid.UUID
	CreatedAt   time.Time
	Salt        []byte
}

func encodeEnvelope(h header, payload []byte) ([]byte, error) {
	if len(h.Codec) > 255 {
		return nil, fmt.Errorf("codec name %q too long", h.Codec)
	}
	if h.Sealed && len(h.Salt) != saltSize {
		return nil, fmt.Errorf("invalid salt size %d", len(h.Salt))
	}

	var flags byte
	if h.Sealed {
		flags |= flagSealed
	}

	buf := make([]byte, 0, len(magic)+4+len(h.Codec)+16+8+len(h.Salt)+8+len(payload)+checksumSize)
	buf = append(buf, magic...)
	buf = append(buf, envelopeVersion, flags, byte(h.Compression), byte(len(h.Codec)))
	buf = append(buf, h.Codec...)
	buf = append(buf, h.ID[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(h.CreatedAt.UnixNano()))
	if h.Sealed {
		buf = append(buf, h.Salt...)
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	buf = binary.LittleEndian.AppendUint64(buf, xxh3.Hash(buf))
	return buf, nil
}

// decodeEnvelope verifies the checksum and splits data into header and payload.
func decodeEnvelope(name string, data []byte) (header, []byte, error) {
	var h header

	if len(data) < len(magic)+checksumSize || !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return h, nil, corrupt(name, "bad magic", nil)
	}

	body := data[:len(data)-checksumSize]
	want := binary.LittleEndian.Uint64(data[len(data)-checksumSize:])
	if got := xxh3.Hash(body); got != want {
		return h, nil, fmt.Errorf("snapshot %s: %w (got %016x, want %016x)", name, ErrChecksumMismatch, got, want)
	}

	r := envelopeReader{buf: body[len(magic):]}
	h.Version = r.u8()
	flags := r.u8()
	h.Compression = Compression(r.u8())
	h.Codec = string(r.next(int(r.u8())))
	copy(h.ID[:], r.next(16))
	h.CreatedAt = time.Unix(0, int64(r.u64())).UTC()
	h.Sealed = flags&flagSealed != 0
	if h.Sealed {
		h.Salt = r.next(saltSize)
	}
	n := r.u64()
	if r.err {
		return h, nil, corrupt(name, "truncated header", nil)
	}
	if h.Version != envelopeVersion {
		return h, nil, corrupt(name, fmt.Sprintf("unsupported version %d", h.Version), nil)
	}
	if n != uint64(len(r.buf)) {
		return h, nil, corrupt(name, fmt.Sprintf("payload length %d, have %d bytes", n, len(r.buf)), nil)
	}
	return h, r.buf, nil
}

// envelopeReader consumes a byte slice; reading past the end sets err.
type envelopeReader struct {
	buf []byte
	err bool
}

func (r *envelopeReader) next(n int) []byte {
	if r.err || n > len(r.buf) {
		r.err = true
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *envelopeReader) u8() byte {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *envelopeReader) u64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
