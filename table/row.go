package table

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"weak"

	"github.com/hupe1980/kangaroo/record"
)

// Row is a single record of a table: an ordered set of named values.
//
// Field order is the order in which fields were first set. Setting or
// deleting a field on a row that belongs to a table updates the table's
// indexes before the call returns.
type Row struct {
	id uint64

	mu     sync.RWMutex
	names  []string
	values map[string]record.Value

	// owner is cleared when the row is deleted from its table.
	owner weak.Pointer[Table]
}

func newRow(id uint64, capacity int) *Row {
	return &Row{
		id:     id,
		names:  make([]string, 0, capacity),
		values: make(map[string]record.Value, capacity),
	}
}

// setLocked stores a copy of v without notifying the owner.
// Caller must hold r.mu.Lock().
func (r *Row) setLocked(field string, v record.Value) {
	if _, ok := r.values[field]; !ok {
		r.names = append(r.names, field)
	}
	r.values[field] = v.Clone()
}

// ID returns the process-unique row identity.
func (r *Row) ID() uint64 { return r.id }

// Table returns the table the row belongs to, or nil once it was deleted
// (or the table is no longer referenced).
func (r *Row) Table() *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.owner.Value()
}

// Get returns the value of field and whether the row defines it.
func (r *Row) Get(field string) (record.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[field]
	return v.Clone(), ok
}

// Has reports whether the row defines field.
func (r *Row) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Field is the error-returning variant of Get, for attribute-style access.
func (r *Row) Field(name string) (record.Value, error) {
	v, ok := r.Get(name)
	if !ok {
		return record.Value{}, &UnknownFieldError{RowID: r.id, Field: name}
	}
	return v, nil
}

// Set assigns v to field and reindexes the row if field is indexed.
func (r *Row) Set(field string, v record.Value) {
	r.mu.Lock()
	r.setLocked(field, v)
	t := r.owner.Value()
	r.mu.Unlock()

	if t != nil {
		t.rowUpdated(r, field)
	}
}

// SetAny converts v with record.FromAny and assigns it to field.
func (r *Row) SetAny(field string, v any) error {
	val, err := record.FromAny(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	r.Set(field, val)
	return nil
}

// Delete removes field from the row. It is a no-op if the field is absent.
func (r *Row) Delete(field string) {
	r.mu.Lock()
	if _, ok := r.values[field]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.values, field)
	if i := slices.Index(r.names, field); i >= 0 {
		r.names = slices.Delete(r.names, i, i+1)
	}
	t := r.owner.Value()
	r.mu.Unlock()

	if t != nil {
		t.rowUpdated(r, field)
	}
}

// Fields returns the field names in the order they were first set.
func (r *Row) Fields() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.names)
}

// Len returns the number of fields.
func (r *Row) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.names)
}

// Document returns a copy of the row contents.
func (r *Row) Document() record.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc := make(record.Document, len(r.values))
	for k, v := range r.values {
		doc[k] = v.Clone()
	}
	return doc
}

// Values returns the fields in order.
func (r *Row) Values() []record.Field {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]record.Field, len(r.names))
	for i, name := range r.names {
		out[i] = record.Field{Name: name, Value: r.values[name].Clone()}
	}
	return out
}

// MarshalJSON encodes the row as a JSON object with fields in row order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range r.Values() {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// String implements fmt.Stringer.
func (r *Row) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Row(%d){", r.id)
	for i, f := range r.Values() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", f.Name, f.Value)
	}
	b.WriteByte('}')
	return b.String()
}

func (r *Row) attach(t *Table) {
	r.mu.Lock()
	r.owner = weak.Make(t)
	r.mu.Unlock()
}

func (r *Row) detach() {
	r.mu.Lock()
	r.owner = weak.Pointer[Table]{}
	r.mu.Unlock()
}
