// Package storage persists the tables of a bucket.
//
// A Storage writes a list of table snapshots and reads them back. Three
// backends are provided:
//
//   - BlobStorage encodes all tables into one self-describing snapshot file
//     (codec, compression, optional AES-GCM sealing, xxh3 checksum) and stores
//     it in any blobstore.BlobStore: local disk, memory, S3, S3 with a
//     DynamoDB commit pointer, or MinIO.
//   - CSVStorage writes one CSV file per table. Values are converted back
//     through a record.Schema; index definitions are supplied as hints.
//   - SQLiteStorage keeps tables and rows in a SQLite database.
//
// Loading never restores row identities: rows are re-inserted in their
// original order and receive fresh ids.
package storage
