package kangaroo

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/hupe1980/kangaroo/table"
)

// Bucket is a named collection of tables.
type Bucket struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
	closed bool

	opts options
}

// New creates an empty bucket.
func New(optFns ...Option) *Bucket {
	return &Bucket{
		tables: make(map[string]*table.Table),
		opts:   applyOptions(optFns),
	}
}

// Open creates a bucket and loads it from the configured storage. A storage
// that holds no snapshot yet yields an empty bucket.
func Open(ctx context.Context, optFns ...Option) (*Bucket, error) {
	b := New(optFns...)
	if b.opts.storage == nil {
		return b, nil
	}
	if err := b.Load(ctx); err != nil && !errors.Is(err, ErrNoSnapshot) {
		return nil, err
	}
	return b, nil
}

// Logger returns the bucket's logger.
func (b *Bucket) Logger() *Logger { return b.opts.logger }

// tableOptions are the options every table of the bucket is created with.
func (b *Bucket) tableOptions(name string) []table.Option {
	opts := []table.Option{
		table.WithLogger(b.opts.logger.WithTable(name).Logger),
		table.WithMetrics(b.opts.metricsCollector),
	}
	return append(opts, b.opts.tableOptions...)
}

// NewTable creates a table configured with the bucket's logger, metrics and
// table options. The table is not added to the bucket.
func (b *Bucket) NewTable(name string, optFns ...table.Option) *table.Table {
	return table.New(name, append(b.tableOptions(name), optFns...)...)
}

// AddTable adds t under its name. It fails with a *DuplicateTableError if
// the name is taken.
func (b *Bucket) AddTable(t *table.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if _, ok := b.tables[t.Name()]; ok {
		return &DuplicateTableError{Name: t.Name()}
	}
	b.tables[t.Name()] = t
	b.opts.logger.LogTableAdded(context.Background(), t.Name(), t.Len())
	return nil
}

// DeleteTable removes the named table. It fails with a *NotFoundError if
// no such table exists.
func (b *Bucket) DeleteTable(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	var err error
	if _, ok := b.tables[name]; !ok {
		err = &NotFoundError{Kind: "table", Name: name}
	} else {
		delete(b.tables, name)
	}
	b.opts.logger.LogTableDeleted(context.Background(), name, err)
	return err
}

// Table returns the named table.
func (b *Bucket) Table(name string) (*table.Table, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tables[name]
	return t, ok
}

// GetOrCreateTable returns the named table, creating and adding an empty one
// if it does not exist. A closed bucket is not modified: the new table is
// returned without being added, like NewTable.
func (b *Bucket) GetOrCreateTable(name string) *table.Table {
	if t, ok := b.Table(name); ok {
		return t
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.tables[name]; ok {
		return t
	}
	t := b.NewTable(name)
	if b.closed {
		return t
	}
	b.tables[name] = t
	b.opts.logger.LogTableAdded(context.Background(), name, 0)
	return t
}

// Tables returns all tables sorted by name.
func (b *Bucket) Tables() []*table.Table {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.tablesLocked()
}

func (b *Bucket) tablesLocked() []*table.Table {
	out := make([]*table.Table, 0, len(b.tables))
	for _, name := range b.namesLocked() {
		out = append(out, b.tables[name])
	}
	return out
}

// Names returns the sorted table names.
func (b *Bucket) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.namesLocked()
}

func (b *Bucket) namesLocked() []string {
	names := make([]string, 0, len(b.tables))
	for name := range b.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of tables.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.tables)
}

// Dump writes every table to the configured storage.
func (b *Bucket) Dump(ctx context.Context) error {
	if b.opts.storage == nil {
		return ErrNoStorage
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	snapshots, rows := b.snapshotLocked()
	b.mu.RUnlock()

	return b.dump(ctx, snapshots, rows)
}

func (b *Bucket) snapshotLocked() ([]table.Snapshot, int) {
	snapshots := make([]table.Snapshot, 0, len(b.tables))
	rows := 0
	for _, t := range b.tablesLocked() {
		s := t.Snapshot()
		rows += len(s.Rows)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows
}

func (b *Bucket) dump(ctx context.Context, snapshots []table.Snapshot, rows int) error {
	err := b.opts.storage.Dump(ctx, snapshots)
	b.opts.logger.LogDump(ctx, len(snapshots), rows, err)
	return err
}

// Load replaces the bucket's tables with the ones in the configured storage.
// It returns ErrNoSnapshot if the storage holds nothing yet, leaving the
// bucket unchanged.
func (b *Bucket) Load(ctx context.Context) error {
	if b.opts.storage == nil {
		return ErrNoStorage
	}

	snapshots, err := b.opts.storage.Load(ctx)
	if err != nil {
		b.opts.logger.LogLoad(ctx, 0, 0, err)
		return err
	}

	tables := make(map[string]*table.Table, len(snapshots))
	rows := 0
	for _, s := range snapshots {
		if _, ok := tables[s.Name]; ok {
			err := &DuplicateTableError{Name: s.Name}
			b.opts.logger.LogLoad(ctx, 0, 0, err)
			return err
		}
		tables[s.Name] = table.Restore(s, b.tableOptions(s.Name)...)
		rows += len(s.Rows)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.tables = tables
	b.opts.logger.LogLoad(ctx, len(tables), rows, nil)
	return nil
}

// Close dumps the bucket if WithFlushOnClose is set and closes the storage
// if it implements io.Closer. Closing twice is a no-op. The tables are
// captured when the bucket is marked closed, so only the first Close dumps.
func (b *Bucket) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	flush := b.opts.flushOnClose && b.opts.storage != nil
	var (
		snapshots []table.Snapshot
		rows      int
	)
	if flush {
		snapshots, rows = b.snapshotLocked()
	}
	b.mu.Unlock()

	var errs []error
	if flush {
		errs = append(errs, b.dump(context.Background(), snapshots, rows))
	}

	if c, ok := b.opts.storage.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
