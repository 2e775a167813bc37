package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/kangaroo/blobstore"
)

// Store keeps blobs as objects below a key prefix of one bucket.
type Store struct {
	client   Client
	bucket   string
	prefix   string // without trailing slash
	uploader *manager.Uploader
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore creates a Store on top of client. Blob names are joined to
// rootPrefix with a slash.
func NewStore(client Client, bucket, rootPrefix string, optFns ...Option) *Store {
	opts := options{prefix: rootPrefix, upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return newStore(client, bucket, opts)
}

func newStore(client Client, bucket string, opts options) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(opts.prefix, "/"),
		uploader: newUploader(client, opts.upload),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// name is the inverse of key. ok is false for keys outside the prefix.
func (s *Store) name(key string) (string, bool) {
	if s.prefix == "" {
		return key, true
	}
	return strings.CutPrefix(key, s.prefix+"/")
}

// Open issues a HEAD request and returns a handle that reads with ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	obj := object{client: s.client, bucket: s.bucket, key: s.key(name)}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(obj.bucket),
		Key:    aws.String(obj.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("head s3://%s/%s: %w", obj.bucket, obj.key, err)
	}
	obj.size = aws.ToInt64(head.ContentLength)
	return &obj, nil
}

// Create streams the written bytes into an upload running in the
// background. The object becomes visible when Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	w := &uploadWriter{pw: pw, cancel: cancel, done: make(chan error, 1)}
	go func() {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Put uploads data. Single objects are replaced atomically.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Delete removes the object. S3 does not report missing keys.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List pages through the keys below the prefix and returns the sorted blob
// names starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") || (prefix == "" && s.prefix != "") {
		keyPrefix += "/"
	}

	var names []string
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, keyPrefix, err)
		}
		for _, obj := range page.Contents {
			if name, ok := s.name(aws.ToString(obj.Key)); ok {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// object is an opened S3 object.
type object struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (o *object) Size() int64 { return o.size }

func (o *object) Close() error { return nil }

// get fetches [off, off+length) clipped to the object size.
func (o *object) get(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	last := min(off+length, o.size) - 1
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, last)),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= o.size {
		return 0, io.EOF
	}

	body, err := o.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, io.EOF
	}
	return n, err
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= o.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return o.get(ctx, off, length)
}

// uploadWriter feeds a background upload through a pipe.
type uploadWriter struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error

	mu     sync.Mutex
	closed bool
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

// Sync is a no-op; the upload completes in Close.
func (w *uploadWriter) Sync() error { return nil }

// Close ends the stream and waits for the upload to finish.
func (w *uploadWriter) Close() error {
	if !w.finish() {
		return io.ErrClosedPipe
	}
	defer w.cancel()
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

// Abort cancels the upload. Nothing is written to the bucket.
func (w *uploadWriter) Abort() error {
	if !w.finish() {
		return io.ErrClosedPipe
	}
	w.cancel()
	_ = w.pw.CloseWithError(context.Canceled)
	<-w.done
	return nil
}

func (w *uploadWriter) finish() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.closed = true
	return true
}
