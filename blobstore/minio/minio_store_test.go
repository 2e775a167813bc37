package minio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kangaroo/blobstore"
)

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "/kangaroo/")
	assert.Equal(t, "kangaroo/CURRENT", s.key("CURRENT"))
	assert.Equal(t, "kangaroo/snapshots/a.kgr", s.key("snapshots/a.kgr"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "CURRENT", s.key("CURRENT"))
}

func TestDial_RequiresEndpointAndBucket(t *testing.T) {
	_, err := Dial(context.Background(), Config{Bucket: "b"})
	require.Error(t, err)

	_, err = Dial(context.Background(), Config{Endpoint: "localhost:9000"})
	require.Error(t, err)
}

// TestStore_NotFound runs against a server that knows no objects.
func TestStore_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("key", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	store := NewStore(client, "bucket", "kangaroo")
	ctx := context.Background()

	_, err = store.Open(ctx, "CURRENT")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	exists, err := blobstore.Exists(ctx, store, "CURRENT")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, store.Delete(ctx, "CURRENT"))
}

// TestStore_Integration requires a running MinIO instance, configured with
// KANGAROO_MINIO_ENDPOINT (and optionally KANGAROO_MINIO_ACCESS_KEY and
// KANGAROO_MINIO_SECRET_KEY).
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("KANGAROO_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("KANGAROO_MINIO_ENDPOINT not set")
	}
	accessKey := getenv("KANGAROO_MINIO_ACCESS_KEY", "minioadmin")
	secretKey := getenv("KANGAROO_MINIO_SECRET_KEY", "minioadmin")

	ctx := context.Background()
	store, err := Dial(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    "test-kangaroo",
		Prefix:    "test-prefix/",
	})
	require.NoError(t, err)

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.txt", data))

	blob, err := store.Open(ctx, "test.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.txt")

	require.NoError(t, store.Delete(ctx, "test.txt"))
	_, err = store.Open(ctx, "test.txt")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "stream.txt")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	got, err := blobstore.ReadAll(ctx, store, "stream.txt")
	require.NoError(t, err)
	assert.Equal(t, "streamed data", string(got))

	_ = store.Delete(ctx, "stream.txt")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
