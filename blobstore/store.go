package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that do not stay below the store root.
var ErrInvalidName = errors.New("invalid blob name")

// BlobStore is an abstraction for reading and writing named blobs
// (snapshots, CSV files, commit pointers).
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when the returned writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadAt reads len(p) bytes at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader for length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a handle for streaming writes.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to stable storage where supported.
	Sync() error
}

// Abortable is implemented by WritableBlobs that can drop a write in
// progress without making anything visible.
type Abortable interface {
	Abort() error
}

// Discard ends a failed write: it aborts w if possible and closes it
// otherwise.
func Discard(w WritableBlob) error {
	if a, ok := w.(Abortable); ok {
		return a.Abort()
	}
	return w.Close()
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll reads a whole blob into memory.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	if m, ok := blob.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// The mapping is released on Close.
		return append([]byte(nil), data...), nil
	}

	size := blob.Size()
	if size == 0 {
		return []byte{}, nil
	}
	r, err := blob.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether a blob exists.
func Exists(ctx context.Context, store BlobStore, name string) (bool, error) {
	blob, err := store.Open(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, blob.Close()
}

// nopReadCloser adapts an io.Reader.
func nopReadCloser(r io.Reader) io.ReadCloser { return io.NopCloser(r) }
