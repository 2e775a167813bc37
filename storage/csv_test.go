package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kangaroo/blobstore"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/resource"
	"github.com/hupe1980/kangaroo/table"
)

func csvTables() []table.Snapshot {
	return []table.Snapshot{
		{
			Name: "animals",
			Rows: []record.Document{
				{"animal": record.String("kangaroo"), "legs": record.Int(2), "weight": record.Float(85.5)},
				{"animal": record.String("lion"), "legs": record.Int(4), "wild": record.Bool(true)},
				{"animal": record.String("emu, the bird"), "tags": record.Strings("bird", "fast")},
			},
		},
		{
			Name: "keepers",
			Rows: []record.Document{
				{"name": record.String("Ada"), "zip": record.String("01234")},
			},
		},
	}
}

func TestCSVStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	s := NewCSVStorage(store,
		WithSchema("keepers", record.Schema{"zip": record.FieldTypeString}),
		WithIndexHints(map[string][]string{"animals": {"animal"}}),
		WithResourceController(resource.NewController(resource.Config{MaxConcurrentIO: 1})),
	)

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, s.Dump(ctx, csvTables()))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"animals.csv", "keepers.csv"}, names)

	got, err := s.Load(ctx)
	require.NoError(t, err)

	want := csvTables()
	want[0].Indexes = []string{"animal"}
	assert.Equal(t, want, got)
}

func TestCSVStorage_Format(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s := NewCSVStorage(store)

	require.NoError(t, s.Dump(ctx, csvTables()[:1]))

	data, err := blobstore.ReadAll(ctx, store, "animals.csv")
	require.NoError(t, err)
	assert.Equal(t,
		"animal,legs,weight,wild,tags\n"+
			"kangaroo,2,85.5,,\n"+
			"lion,4,,true,\n"+
			"\"emu, the bird\",,,,\"[\"\"bird\"\",\"\"fast\"\"]\"\n",
		string(data))
}

func TestCSVStorage_SchemaTypes(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "readings.csv", []byte("sensor,value,ok\n7,1.5,1\n8,2,0\n")))

	s := NewCSVStorage(store, WithSchema("readings", record.Schema{
		"sensor": record.FieldTypeString,
		"value":  record.FieldTypeFloat,
		"ok":     record.FieldTypeBool,
	}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []record.Document{
		{"sensor": record.String("7"), "value": record.Float(1.5), "ok": record.Bool(true)},
		{"sensor": record.String("8"), "value": record.Float(2), "ok": record.Bool(false)},
	}, got[0].Rows)

	require.NoError(t, store.Put(ctx, "readings.csv", []byte("sensor,value,ok\n7,high,1\n")))
	_, err = s.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2, column value")
}

func TestCSVStorage_NoHeader(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s := NewCSVStorage(store, WithHeader(false), WithDelimiter(';'))

	require.NoError(t, s.Dump(ctx, []table.Snapshot{{
		Name: "pairs",
		Rows: []record.Document{
			{"a": record.Int(1), "b": record.String("x")},
			{"a": record.Int(2)},
		},
	}}))

	data, err := blobstore.ReadAll(ctx, store, "pairs.csv")
	require.NoError(t, err)
	assert.Equal(t, "1;x\n2;\n", string(data))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record.Document{
		{"row0": record.Int(1), "row1": record.String("x")},
		{"row0": record.Int(2)},
	}, got[0].Rows)
}

func TestCSVStorage_RemovesDroppedTables(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s := NewCSVStorage(store)

	require.NoError(t, s.Dump(ctx, csvTables()))
	require.NoError(t, s.Dump(ctx, csvTables()[1:]))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keepers", got[0].Name)
}

func TestCSVStorage_IgnoresOtherBlobs(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "notes.txt", []byte("hello")))
	require.NoError(t, store.Put(ctx, "archive/old.csv", []byte("a\n1\n")))

	_, err := NewCSVStorage(store).Load(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestCSVStorage_RejectsPathTableNames(t *testing.T) {
	base := t.TempDir()
	local := blobstore.NewLocalStore(filepath.Join(base, "root"))
	s := NewCSVStorage(local)
	ctx := context.Background()

	for _, name := range []string{"../escaped", "nested/table", `back\slash`, ".hidden", ""} {
		tables := append(csvTables(), table.Snapshot{Name: name})
		err := s.Dump(ctx, tables)
		require.ErrorIs(t, err, ErrInvalidTableName, name)
	}

	_, err := os.Stat(filepath.Join(base, "escaped.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	names, err := local.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestExportImportCSV(t *testing.T) {
	src := csvTables()[0]

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, src, WithDelimiter('\t')))

	got, err := ImportCSV(&buf, "animals",
		WithDelimiter('\t'),
		WithIndexHints(map[string][]string{"animals": {"legs"}}),
	)
	require.NoError(t, err)
	assert.Equal(t, "animals", got.Name)
	assert.Equal(t, []string{"legs"}, got.Indexes)
	assert.Equal(t, src.Rows, got.Rows)

	empty, err := ImportCSV(bytes.NewReader(nil), "empty")
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)
}
