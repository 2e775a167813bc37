// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("kangaroo/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	bucket, err := kangaroo.Open(ctx, kangaroo.WithStorage(storage.NewBlobStorage(store)))
//
// S3 has no compare-and-swap for the CURRENT pointer. When several writers
// may dump the same bucket, use NewWithCommits to keep the pointer in a
// DynamoDB table.
//
// # Features
//
//   - Range reads
//   - Multipart uploads for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
