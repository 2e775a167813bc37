// Package blobstore provides the storage abstraction kangaroo snapshots are
// written to.
//
// BlobStore is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem, reads are memory-mapped
//   - MemoryStore: In-process map, for tests and ephemeral buckets
//   - ThrottledStore: Bandwidth limit around another store
//   - s3.Store: Amazon S3 with multipart uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB for an atomic CURRENT pointer
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
