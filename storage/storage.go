package storage

import (
	"context"
	"time"

	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/table"
)

// Storage persists a set of tables.
type Storage interface {
	// Dump replaces the stored state with tables.
	Dump(ctx context.Context, tables []table.Snapshot) error
	// Load returns the stored tables. It returns ErrNoSnapshot if nothing
	// was dumped yet.
	Load(ctx context.Context) ([]table.Snapshot, error)
}

// Snapshot is the unit BlobStorage writes: every table of a bucket at one
// point in time.
type Snapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Tables    []table.Snapshot `json:"tables"`
}

// normalize replaces values a decoder left without a kind (JSON null with
// some decoders) by Null.
func normalize(tables []table.Snapshot) {
	for _, t := range tables {
		for _, doc := range t.Rows {
			for k, v := range doc {
				if !v.IsValid() {
					doc[k] = record.Null()
				}
			}
		}
	}
}
