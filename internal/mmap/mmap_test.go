package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.kgr")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestOpenReadAt(t *testing.T) {
	content := []byte("Hello, kangaroo!")
	f, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, len(content), f.Len())
	assert.Equal(t, content, f.Bytes())

	buf := make([]byte, 9)
	n, err := f.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, "kangaroo!", string(buf))

	n, err = f.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	n, err = f.ReadAt(make([]byte, 20), 7)
	assert.Equal(t, 9, n)
	assert.Equal(t, io.EOF, err)

	_, err = f.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmptyFile(t *testing.T) {
	f, err := Open(writeFile(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.Bytes())
	assert.NoError(t, f.Advise(Sequential))

	s, err := f.Slice(0, 0)
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.NoError(t, f.Close())
}

func TestSliceAdviseClose(t *testing.T) {
	content := make([]byte, 1024)
	for i := range content {
		content[i] = byte(i)
	}
	f, err := Open(writeFile(t, content))
	require.NoError(t, err)

	require.NoError(t, f.Advise(Sequential))
	require.NoError(t, f.Advise(WillNeed))

	s, err := f.Slice(100, 200)
	require.NoError(t, err)
	assert.Equal(t, content[100:300], s)
	assert.Equal(t, 200, cap(s))

	for _, tc := range [][2]int{{-1, 0}, {0, -1}, {1000, 100}, {1024, 1}} {
		_, err = f.Slice(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrRange, "slice %v", tc)
	}

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.Nil(t, f.Bytes())
	assert.ErrorIs(t, f.Advise(Normal), ErrClosed)
	_, err = f.Slice(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
