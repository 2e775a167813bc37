package storage

import (
	"testing"

	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/table"
)

// sampleTables returns two tables covering every value kind except null.
func sampleTables() []table.Snapshot {
	return []table.Snapshot{
		{
			Name:    "animals",
			Indexes: []string{"animal"},
			Rows: []record.Document{
				{"animal": record.String("kangaroo"), "legs": record.Int(2), "weight": record.Float(85.5)},
				{"animal": record.String("lion"), "legs": record.Int(4), "wild": record.Bool(true)},
				{"animal": record.String("emu"), "tags": record.Strings("bird", "fast")},
				{"animal": record.String("kangaroo"), "legs": record.Int(2)},
			},
		},
		{
			Name:    "keepers",
			Indexes: []string{},
			Rows: []record.Document{
				{"name": record.String("Ada"), "shift": record.Ints(1, 3)},
			},
		},
	}
}

func tablesFromBucket(t *testing.T, snaps []table.Snapshot) []*table.Table {
	t.Helper()

	out := make([]*table.Table, len(snaps))
	for i, s := range snaps {
		out[i] = table.Restore(s)
	}
	return out
}
