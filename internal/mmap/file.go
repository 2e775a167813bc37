package mmap

import (
	"errors"
	"io"
	"math"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when using a closed File.
	ErrClosed = errors.New("mmap: file closed")
	// ErrTooLarge is returned for files that do not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large")
	// ErrRange is returned for a negative offset or a slice past the end.
	ErrRange = errors.New("mmap: out of range")
)

// Hint tells the kernel how a mapping will be read.
type Hint int

const (
	// Normal is the kernel default.
	Normal Hint = iota
	// Sequential announces a front-to-back read, as during snapshot decoding.
	Sequential
	// WillNeed asks for read-ahead of the whole mapping.
	WillNeed
)

// File is a read-only memory-mapped file. It is safe for concurrent reads;
// slices obtained from it must not be used after Close.
type File struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path. Empty files are not mapped.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &File{}, nil
	}
	if size > math.MaxInt {
		return nil, ErrTooLarge
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return &File{data: data, unmap: unmap}, nil
}

// Len returns the file size.
func (f *File) Len() int { return len(f.data) }

// Bytes returns the whole mapping, or nil after Close.
func (f *File) Bytes() []byte {
	if f.closed.Load() {
		return nil
	}
	return f.data
}

// Slice returns n bytes starting at off.
func (f *File) Slice(off, n int) ([]byte, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || n < 0 || off > len(f.data)-n {
		return nil, ErrRange
	}
	return f.data[off : off+n : off+n], nil
}

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrRange
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Advise passes h to the kernel. It is a no-op for empty files.
func (f *File) Advise(h Hint) error {
	if f.closed.Load() {
		return ErrClosed
	}
	if len(f.data) == 0 {
		return nil
	}
	return osAdvise(f.data, h)
}

// Close unmaps the file. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed.Swap(true) || f.unmap == nil {
		return nil
	}
	return f.unmap(f.data)
}
