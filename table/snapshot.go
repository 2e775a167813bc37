package table

import "github.com/hupe1980/kangaroo/record"

// Snapshot is a point-in-time copy of a table's contents, used by the
// storage backends. Row identities are not part of a snapshot.
type Snapshot struct {
	Name    string            `json:"name"`
	Indexes []string          `json:"indexes"`
	Rows    []record.Document `json:"rows"`
}

// Snapshot copies the table's name, indexed fields and rows (in order).
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Name:    t.name,
		Indexes: t.indexesLocked(),
		Rows:    make([]record.Document, len(t.rows)),
	}
	for i, r := range t.rows {
		s.Rows[i] = r.Document()
	}
	return s
}

// Restore builds a table from a snapshot. Rows are re-inserted in order
// through Insert, so they receive fresh identities and are indexed as usual.
func Restore(s Snapshot, optFns ...Option) *Table {
	opts := append([]Option{WithIndexes(s.Indexes...)}, optFns...)
	t := New(s.Name, opts...)
	for _, doc := range s.Rows {
		t.Insert(doc)
	}
	return t
}
