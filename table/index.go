package table

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/kangaroo/record"
)

// IndexEntry records that a row sits in the bucket of Field for Value.
type IndexEntry struct {
	Field string
	Value record.Value
}

// index is an equality index over one field.
//
// Structure: value key -> bitmap of row ids. Ids are allocated in insertion
// order, so iterating a bitmap yields rows in table order.
type index struct {
	field   string
	buckets map[string]*roaring64.Bitmap
}

func newIndex(field string) *index {
	return &index{
		field:   field,
		buckets: make(map[string]*roaring64.Bitmap),
	}
}

// lookup returns the bucket for v, or nil if no row holds v.
func (ix *index) lookup(v record.Value) *roaring64.Bitmap {
	return ix.buckets[v.Key()]
}

func (ix *index) add(id uint64, v record.Value) {
	key := v.Key()
	bitmap, ok := ix.buckets[key]
	if !ok {
		bitmap = roaring64.New()
		ix.buckets[key] = bitmap
	}
	bitmap.Add(id)
}

func (ix *index) remove(id uint64, v record.Value) {
	key := v.Key()
	bitmap, ok := ix.buckets[key]
	if !ok {
		return
	}
	bitmap.Remove(id)

	// Clean up empty bitmaps
	if bitmap.IsEmpty() {
		delete(ix.buckets, key)
	}
}

// indexRowLocked adds r to every index for a field it defines.
// Caller must hold t.mu.Lock().
func (t *Table) indexRowLocked(r *Row) {
	for field, ix := range t.indexes {
		if v, ok := r.Get(field); ok {
			t.addEntryLocked(ix, r.id, v)
		}
	}
}

// unindexRowLocked removes r from every bucket it is in and drops its
// reverse-map entry.
// Caller must hold t.mu.Lock().
func (t *Table) unindexRowLocked(r *Row) {
	for _, e := range t.reverse[r.id] {
		if ix, ok := t.indexes[e.Field]; ok {
			ix.remove(r.id, e.Value)
		}
	}
	delete(t.reverse, r.id)
}

func (t *Table) addEntryLocked(ix *index, id uint64, v record.Value) {
	ix.add(id, v)
	t.reverse[id] = append(t.reverse[id], IndexEntry{Field: ix.field, Value: v})
}

// removeEntryLocked removes the reverse-map entry for field and the row from
// the bucket it points to. It reports whether an entry existed.
func (t *Table) removeEntryLocked(ix *index, id uint64, field string) bool {
	entries := t.reverse[id]
	i := slices.IndexFunc(entries, func(e IndexEntry) bool { return e.Field == field })
	if i < 0 {
		return false
	}
	ix.remove(id, entries[i].Value)
	entries = slices.Delete(entries, i, i+1)
	if len(entries) == 0 {
		delete(t.reverse, id)
	} else {
		t.reverse[id] = entries
	}
	return true
}

// AddIndex creates an equality index on field and backfills it from the
// existing rows. It is a no-op if the field is already indexed.
func (t *Table) AddIndex(field string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.indexes[field]; ok {
		return
	}

	ix := newIndex(field)
	t.indexes[field] = ix
	for _, r := range t.rows {
		if v, ok := r.Get(field); ok {
			t.addEntryLocked(ix, r.id, v)
		}
	}

	t.logger.Debug("index added", "table", t.name, "field", field, "values", len(ix.buckets))
}

// DeleteIndex drops the index on field. It is a no-op if the field is not indexed.
func (t *Table) DeleteIndex(field string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.indexes[field]; !ok {
		return
	}
	delete(t.indexes, field)

	for id, entries := range t.reverse {
		entries = slices.DeleteFunc(entries, func(e IndexEntry) bool { return e.Field == field })
		if len(entries) == 0 {
			delete(t.reverse, id)
		} else {
			t.reverse[id] = entries
		}
	}

	t.logger.Debug("index dropped", "table", t.name, "field", field)
}

// HasIndex reports whether field is indexed.
func (t *Table) HasIndex(field string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.indexes[field]
	return ok
}

// Indexes returns the indexed fields in sorted order.
func (t *Table) Indexes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.indexesLocked()
}

func (t *Table) indexesLocked() []string {
	fields := make([]string, 0, len(t.indexes))
	for f := range t.indexes {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// IndexEntries returns the index buckets r currently sits in.
// It returns nil if r is not part of the table or holds no indexed field.
func (t *Table) IndexEntries(r *Row) []IndexEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := t.reverse[r.id]
	if entries == nil {
		return nil
	}
	out := make([]IndexEntry, len(entries))
	for i, e := range entries {
		out[i] = IndexEntry{Field: e.Field, Value: e.Value.Clone()}
	}
	return out
}

// Lookup returns the ids of the rows whose indexed field equals v, in
// insertion order. ok is false if field is not indexed.
func (t *Table) Lookup(field string, v record.Value) (ids []uint64, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ix, ok := t.indexes[field]
	if !ok {
		return nil, false
	}
	if bitmap := ix.lookup(v); bitmap != nil {
		ids = bitmap.ToArray()
	}
	return ids, true
}
