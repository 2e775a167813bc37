// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, SeaweedFS,
// Garage) and needs no AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "kangaroo/")
//	b, err := kangaroo.New(kangaroo.WithStorage(storage.NewBlobStorage(store)))
//
// Or let Dial build the client and create the bucket:
//
//	store, err := minioblob.Dial(ctx, minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "kangaroo",
//	})
package minio
