package kangaroo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kangaroo/blobstore"
	"github.com/hupe1980/kangaroo/filter"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/storage"
	"github.com/hupe1980/kangaroo/table"
	"github.com/hupe1980/kangaroo/testutil"
)

func animals(t *testing.T, b *Bucket) *table.Table {
	t.Helper()

	tbl := b.GetOrCreateTable("animals")
	tbl.AddIndex("animal")
	tbl.InsertFields(record.F("animal", record.String("lion")), record.F("number", record.Int(2)))
	tbl.InsertFields(record.F("animal", record.String("kangaroo")), record.F("number", record.Int(100)))
	return tbl
}

func TestBucket_DeleteUnknownTable(t *testing.T) {
	b := New()

	err := b.DeleteTable("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "table", nf.Kind)
	assert.Equal(t, "missing", nf.Name)
}

func TestBucket_AddTableTwice(t *testing.T) {
	b := New()

	require.NoError(t, b.AddTable(table.New("animals")))

	err := b.AddTable(table.New("animals"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTable)

	var dup *DuplicateTableError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "animals", dup.Name)
	assert.Equal(t, 1, b.Len())
}

func TestBucket_Registry(t *testing.T) {
	b := New()

	zoo := b.GetOrCreateTable("zoo")
	assert.Same(t, zoo, b.GetOrCreateTable("zoo"))
	require.NoError(t, b.AddTable(b.NewTable("birds")))
	b.GetOrCreateTable("animals")

	assert.Equal(t, []string{"animals", "birds", "zoo"}, b.Names())
	tables := b.Tables()
	require.Len(t, tables, 3)
	assert.Equal(t, "animals", tables[0].Name())
	assert.Same(t, zoo, tables[2])

	got, ok := b.Table("birds")
	require.True(t, ok)
	assert.Equal(t, "birds", got.Name())

	require.NoError(t, b.DeleteTable("birds"))
	_, ok = b.Table("birds")
	assert.False(t, ok)
	assert.Equal(t, []string{"animals", "zoo"}, b.Names())
}

func TestBucket_Queries(t *testing.T) {
	b := New()
	tbl := animals(t, b)

	rows := tbl.FindAll()
	require.Len(t, rows, 2)
	v, _ := rows[0].Get("animal")
	assert.Equal(t, "lion", v.StringValue())

	row, ok := tbl.Find(filter.Eq("animal", "kangaroo"))
	require.True(t, ok)
	assert.Same(t, rows[1], row)

	gt, err := tbl.FindAllBy(filter.Args{"number__gt": 2})
	require.NoError(t, err)
	require.Len(t, gt, 1)
	assert.Same(t, rows[1], gt[0])

	gte, err := tbl.FindAllBy(filter.Args{"number__gte": 2})
	require.NoError(t, err)
	assert.Len(t, gte, 2)

	_, err = tbl.FindAllBy(filter.Args{"number__near": 2})
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestBucket_DumpLoad(t *testing.T) {
	ctx := context.Background()
	st := storage.NewBlobStorage(blobstore.NewMemoryStore())

	b := New(WithStorage(st))
	animals(t, b)
	birds := b.GetOrCreateTable("birds")
	birds.Insert(record.Document{"name": record.String("emu"), "legs": record.Int(2)})
	require.NoError(t, b.Dump(ctx))

	loaded, err := Open(ctx, WithStorage(st))
	require.NoError(t, err)
	assert.Equal(t, []string{"animals", "birds"}, loaded.Names())

	tbl, ok := loaded.Table("animals")
	require.True(t, ok)
	assert.Equal(t, []string{"animal"}, tbl.Indexes())
	require.Equal(t, 2, tbl.Len())

	plan := tbl.Explain(filter.Eq("animal", "kangaroo"))
	assert.False(t, plan.FullScan)
	row, ok := tbl.Find(filter.Eq("animal", "kangaroo"))
	require.True(t, ok)
	n, _ := row.Get("number")
	assert.Equal(t, record.Int(100), n)
}

func TestBucket_LoadReplacesTables(t *testing.T) {
	ctx := context.Background()
	st := storage.NewBlobStorage(blobstore.NewMemoryStore())

	b := New(WithStorage(st))
	animals(t, b)
	require.NoError(t, b.Dump(ctx))

	b.GetOrCreateTable("scratch")
	require.NoError(t, b.Load(ctx))
	assert.Equal(t, []string{"animals"}, b.Names())
}

func TestBucket_OpenEmptyStorage(t *testing.T) {
	b, err := Open(context.Background(), WithStorage(storage.NewBlobStorage(blobstore.NewMemoryStore())))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())

	err = b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestBucket_NoStorage(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Dump(context.Background()), ErrNoStorage)
	assert.ErrorIs(t, b.Load(context.Background()), ErrNoStorage)
	assert.NoError(t, b.Close())
}

type failingStorage struct{ err error }

func (s failingStorage) Dump(context.Context, []table.Snapshot) error { return s.err }

func (s failingStorage) Load(context.Context) ([]table.Snapshot, error) { return nil, s.err }

func TestBucket_OpenError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Open(context.Background(), WithStorage(failingStorage{err: boom}))
	assert.ErrorIs(t, err, boom)
}

type duplicateStorage struct{}

func (duplicateStorage) Dump(context.Context, []table.Snapshot) error { return nil }

func (duplicateStorage) Load(context.Context) ([]table.Snapshot, error) {
	return []table.Snapshot{{Name: "a"}, {Name: "a"}}, nil
}

func TestBucket_LoadDuplicateNames(t *testing.T) {
	b := New(WithStorage(duplicateStorage{}))
	b.GetOrCreateTable("keep")

	err := b.Load(context.Background())
	assert.ErrorIs(t, err, ErrDuplicateTable)
	assert.Equal(t, []string{"keep"}, b.Names())
}

type closingStorage struct {
	*storage.BlobStorage
	closed int
}

func (s *closingStorage) Close() error {
	s.closed++
	return nil
}

func TestBucket_CloseFlushes(t *testing.T) {
	ctx := context.Background()
	st := &closingStorage{BlobStorage: storage.NewBlobStorage(blobstore.NewMemoryStore())}

	b := New(WithStorage(st), WithFlushOnClose(true))
	animals(t, b)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, st.closed)

	assert.ErrorIs(t, b.AddTable(table.New("late")), ErrClosed)
	assert.ErrorIs(t, b.Dump(ctx), ErrClosed)
	assert.ErrorIs(t, b.DeleteTable("animals"), ErrClosed)
	late := b.GetOrCreateTable("late")
	require.NotNil(t, late)
	assert.Equal(t, "late", late.Name())
	assert.Equal(t, []string{"animals"}, b.Names())

	reopened, err := Open(ctx, WithStorage(st.BlobStorage))
	require.NoError(t, err)
	assert.Equal(t, []string{"animals"}, reopened.Names())
}

type countingStorage struct {
	dumps  atomic.Int32
	closes atomic.Int32
}

func (s *countingStorage) Dump(context.Context, []table.Snapshot) error {
	s.dumps.Add(1)
	return nil
}

func (s *countingStorage) Load(context.Context) ([]table.Snapshot, error) {
	return nil, ErrNoSnapshot
}

func (s *countingStorage) Close() error {
	s.closes.Add(1)
	return nil
}

func TestBucket_ConcurrentCloseFlushesOnce(t *testing.T) {
	st := &countingStorage{}
	b := New(WithStorage(st), WithFlushOnClose(true))
	animals(t, b)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Close())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), st.dumps.Load())
	assert.Equal(t, int32(1), st.closes.Load())
}

func TestBucket_Metrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	b := New(WithMetricsCollector(metrics))
	tbl := animals(t, b)

	tbl.FindAll(filter.Eq("animal", "lion"))
	tbl.FindAll(filter.Gt("number", 1))
	rows := tbl.Rows()
	rows[0].Set("animal", record.String("tiger"))
	require.NoError(t, tbl.DeleteRow(rows[1]))

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.InsertCount)
	assert.Equal(t, int64(2), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryFullScans)
	assert.Equal(t, int64(1), stats.UpdateCount)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.Equal(t, int64(0), stats.DeleteErrors)
}

func TestBucket_LoggerReceivesTableEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := New(WithLogger(logger))
	b.GetOrCreateTable("animals")
	require.Error(t, b.DeleteTable("missing"))

	out := buf.String()
	assert.Contains(t, out, "table added")
	assert.Contains(t, out, "table=animals")
	assert.Contains(t, out, "delete table failed")
}

func TestBucket_RandomTablesRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)
	st := storage.NewBlobStorage(blobstore.NewMemoryStore())

	b := New(WithStorage(st))
	for _, name := range []string{"a", "b", "c"} {
		tbl := b.GetOrCreateTable(name)
		tbl.AddIndex("animal")
		for range 50 {
			tbl.Insert(rng.Document(testutil.DefaultFields))
		}
	}
	require.NoError(t, b.Dump(ctx))

	loaded, err := Open(ctx, WithStorage(st))
	require.NoError(t, err)
	for _, name := range b.Names() {
		want, _ := b.Table(name)
		got, ok := loaded.Table(name)
		require.True(t, ok)
		require.Equal(t, want.Len(), got.Len())
		for i, r := range want.Rows() {
			assert.True(t, r.Document().Equal(got.Rows()[i].Document()), "table %s row %d", name, i)
		}
	}
}
