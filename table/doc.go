// Package table implements kangaroo's table/index/query engine.
//
// A Table is an insertion-ordered sequence of schema-less rows plus optional
// secondary equality indexes. Every index maps a value key to the set of row
// ids holding that value (a roaring64 bitmap); a reverse map records, per row,
// which index buckets it currently lives in, so updates and deletes touch only
// the buckets the row is in.
//
// Rows notify their table synchronously when a field changes, so the indexes
// are always consistent with the row contents by the time a mutating call
// returns.
//
// Queries are conjunctions of filter.Filter values. Equality filters on
// indexed fields are answered from the buckets (smallest bucket first), the
// remaining filters are evaluated by scanning the candidates:
//
//	tbl := table.New("animals", table.WithIndexes("animal"))
//	tbl.InsertFields(record.F("animal", record.String("kangaroo")), record.F("number", record.Int(100)))
//
//	rows := tbl.FindAll(filter.Eq("animal", "kangaroo"), filter.Gt("number", 2))
//
// All methods are safe for concurrent use. A table is guarded by a single
// read/write lock; rows guard their own field map.
package table
