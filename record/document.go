package record

import "slices"

// Field is a single name/value pair. It is used where field order matters,
// for example when inserting rows loaded from a CSV file with a header.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for constructing a Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Document is an unordered field/value mapping.
type Document map[string]Value

// Clone creates a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v.clone()
	}
	return clone
}

// Keys returns the field names in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Fields returns the document as fields ordered by name.
func (d Document) Fields() []Field {
	keys := d.Keys()
	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Name: k, Value: d[k]}
	}
	return fields
}

// Equal reports whether both documents hold the same fields with equal values.
func (d Document) Equal(o Document) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Any converts the document to a plain map, e.g. for printing.
func (d Document) Any() map[string]any {
	m := make(map[string]any, len(d))
	for k, v := range d {
		m[k] = v.Any()
	}
	return m
}
