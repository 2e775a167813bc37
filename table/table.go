package table

import (
	"cmp"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/hupe1980/kangaroo/record"
)

// Table is a named, insertion-ordered collection of rows with optional
// equality indexes.
type Table struct {
	name string

	mu   sync.RWMutex
	rows []*Row // insertion order, ascending ids
	byID map[uint64]*Row

	indexes map[string]*index
	// reverse maps a row id to the buckets it is in. A row without any
	// indexed field has no entry.
	reverse map[uint64][]IndexEntry

	logger  *slog.Logger
	metrics MetricsCollector
}

// New creates an empty table.
func New(name string, optFns ...Option) *Table {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}
	if opts.metrics == nil {
		opts.metrics = NoopMetricsCollector{}
	}

	t := &Table{
		name:    name,
		byID:    make(map[uint64]*Row),
		indexes: make(map[string]*index),
		reverse: make(map[uint64][]IndexEntry),
		logger:  opts.logger,
		metrics: opts.metrics,
	}
	for _, field := range opts.indexes {
		if _, ok := t.indexes[field]; !ok {
			t.indexes[field] = newIndex(field)
		}
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rows)
}

// Rows returns the rows in insertion order.
func (t *Table) Rows() []*Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(t.rows)
}

// Get returns the row with the given id.
func (t *Table) Get(id uint64) (*Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.byID[id]
	return r, ok
}

// Insert appends a new row holding the document's fields, set in sorted
// field order. Duplicate contents are allowed; every call creates a new row.
func (t *Table) Insert(doc record.Document) *Row {
	return t.InsertFields(doc.Fields()...)
}

// InsertFields appends a new row holding fields in the given order. A later
// field with the same name overwrites an earlier one.
func (t *Table) InsertFields(fields ...record.Field) *Row {
	start := time.Now()

	t.mu.Lock()
	// The id is allocated under the table lock so that row order and id order agree.
	r := newRow(nextID(), len(fields))
	for _, f := range fields {
		r.setLocked(f.Name, f.Value)
	}
	t.rows = append(t.rows, r)
	t.byID[r.id] = r
	t.indexRowLocked(r)
	r.attach(t)
	t.mu.Unlock()

	t.metrics.RecordInsert(time.Since(start))
	return r
}

// InsertAny converts a plain Go map with record.DocumentFromAny and inserts it.
func (t *Table) InsertAny(m map[string]any) (*Row, error) {
	doc, err := record.DocumentFromAny(m)
	if err != nil {
		return nil, err
	}
	return t.Insert(doc), nil
}

// DeleteRow removes r from the table and from every index bucket.
// It returns a *NotFoundError if r is not part of the table.
func (t *Table) DeleteRow(r *Row) error {
	start := time.Now()

	err := t.deleteRow(r)
	t.metrics.RecordDelete(time.Since(start), err)
	return err
}

func (t *Table) deleteRow(r *Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r == nil || t.byID[r.id] != r {
		name := "<nil>"
		if r != nil {
			name = strconv.FormatUint(r.id, 10)
		}
		return &NotFoundError{Kind: "row", Name: name}
	}

	t.unindexRowLocked(r)

	if i, found := slices.BinarySearchFunc(t.rows, r.id, func(row *Row, id uint64) int {
		return cmp.Compare(row.id, id)
	}); found {
		t.rows = slices.Delete(t.rows, i, i+1)
	}
	delete(t.byID, r.id)
	r.detach()

	t.logger.Debug("row deleted", "table", t.name, "id", r.id)
	return nil
}

// Truncate removes all rows. Indexes are kept, but emptied.
func (t *Table) Truncate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.rows {
		r.detach()
	}
	t.rows = nil
	t.byID = make(map[uint64]*Row)
	t.reverse = make(map[uint64][]IndexEntry)
	for field := range t.indexes {
		t.indexes[field] = newIndex(field)
	}
}

// rowUpdated brings the indexes in line with the current value of field on r.
// It runs in O(indexed fields of r) and is a no-op if the row is no longer
// part of the table, the field is not indexed, or the value did not move to
// another bucket.
func (t *Table) rowUpdated(r *Row, field string) {
	start := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.byID[r.id] != r {
		return
	}
	ix, ok := t.indexes[field]
	if !ok {
		return
	}

	current, has := r.Get(field)

	if has {
		entries := t.reverse[r.id]
		if i := slices.IndexFunc(entries, func(e IndexEntry) bool { return e.Field == field }); i >= 0 {
			if entries[i].Value.Key() == current.Key() {
				entries[i].Value = current
				return
			}
		}
	}

	t.removeEntryLocked(ix, r.id, field)
	if has {
		t.addEntryLocked(ix, r.id, current)
	}

	t.metrics.RecordUpdate(time.Since(start))
}
