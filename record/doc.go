// Package record defines the typed values stored in kangaroo rows.
//
// A row field holds a Value, which can be:
//
//   - Null: record.Null()
//   - Int: record.Int(2024)
//   - Float: record.Float(3.14)
//   - String: record.String("lion")
//   - Bool: record.Bool(true)
//   - Array: record.Array([]record.Value{...}) or record.Strings("a", "b")
//
// Example:
//
//	doc := record.Document{
//	    "animal": record.String("lion"),
//	    "number": record.Int(2),
//	}
//
// Documents built from plain Go maps go through the adapter:
//
//	doc, err := record.DocumentFromAny(map[string]any{"animal": "lion", "number": 2})
//
// # Equality and ordering
//
// Equal compares ints and floats numerically, so Int(2) equals Float(2.0).
// Key returns the stable string used for index buckets and agrees with Equal.
// Compare orders numbers and strings; any other pairing is unordered.
//
// # Encoding
//
// Values marshal to their natural JSON form ({"number": 2}), which keeps JSON
// snapshots readable and lets CSV cells be parsed with ParseText.
package record
