package blobstore

import (
	"context"
	"io"

	"github.com/hupe1980/kangaroo/resource"
)

// ThrottledStore limits the throughput of an inner store with a
// resource.Controller. Reads and writes are charged by byte count.
type ThrottledStore struct {
	inner BlobStore
	rc    *resource.Controller
}

// NewThrottledStore wraps inner. A nil controller disables throttling.
func NewThrottledStore(inner BlobStore, rc *resource.Controller) *ThrottledStore {
	return &ThrottledStore{inner: inner, rc: rc}
}

func (s *ThrottledStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &throttledBlob{Blob: b, rc: s.rc}, nil
}

func (s *ThrottledStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &throttledWritableBlob{
		WritableBlob: w,
		w:            resource.NewRateLimitedWriter(ctx, w, s.rc),
	}, nil
}

func (s *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.rc.WaitIO(ctx, len(data)); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

func (s *ThrottledStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

func (s *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// throttledBlob hides Mappable on purpose: zero-copy access would bypass
// the limiter.
type throttledBlob struct {
	Blob
	rc *resource.Controller
}

func (b *throttledBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	n, err := b.Blob.ReadAt(ctx, p, off)
	if n > 0 {
		if werr := b.rc.WaitIO(ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (b *throttledBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	r, err := b.Blob.ReadRange(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return &throttledReadCloser{
		Reader: resource.NewRateLimitedReader(ctx, r, b.rc),
		Closer: r,
	}, nil
}

type throttledReadCloser struct {
	io.Reader
	io.Closer
}

type throttledWritableBlob struct {
	WritableBlob
	w io.Writer
}

func (b *throttledWritableBlob) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

func (b *throttledWritableBlob) Abort() error {
	return Discard(b.WritableBlob)
}
