package table

import "sync/atomic"

// lastID is shared by all tables, so a row id is unique for the lifetime of
// the process and is never reused.
var lastID atomic.Uint64

func nextID() uint64 {
	return lastID.Add(1)
}
