// Package kangaroo provides an embedded, in-process tabular data store.
//
// A Bucket is a named collection of tables. Each table holds schema-less
// rows that are queried with field predicates and optionally accelerated by
// equality indexes, which are kept up to date as rows are inserted, changed
// and deleted.
//
// # Quick Start
//
//	b := kangaroo.New()
//	animals := b.GetOrCreateTable("animals")
//	animals.AddIndex("animal")
//
//	animals.Insert(record.Document{"animal": record.String("lion"), "number": record.Int(2)})
//	animals.Insert(record.Document{"animal": record.String("kangaroo"), "number": record.Int(100)})
//
//	row, ok := animals.Find(filter.Eq("animal", "kangaroo"))
//	rows, err := animals.FindAllBy(filter.Args{"number__gte": 2})
//
// # Queries
//
// Filters are conjunctions of (field, operator, value) predicates. Keys use
// the field__operator mini-language: "number" means equality, "number__gt"
// greater-than. Supported operators are eq, ne, gt, gte, lt, lte, in, range,
// contains, startswith and endswith. A row that does not define a field
// never matches a predicate on it.
//
// Equality filters on indexed fields are answered from the index; all other
// filters are evaluated against the remaining candidates. Results are always
// returned in insertion order. Table.Explain shows the chosen plan.
//
// # Persistence
//
// A Bucket with a storage backend can be dumped and loaded:
//
//	st := storage.NewBlobStorage(blobstore.NewLocalStore("./data"))
//	b, err := kangaroo.Open(ctx, kangaroo.WithStorage(st))
//	...
//	err = b.Dump(ctx)
//
// Backends write snapshot files to a blob store (local disk, memory, S3,
// MinIO), CSV files, or a SQLite database. See package storage.
//
// # Concurrency
//
// Tables and the Bucket are safe for concurrent use. Each table guards its
// rows and indexes with one lock; row fields are guarded per row.
package kangaroo
