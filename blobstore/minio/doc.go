// Package minio provides a blobstore.BlobStore backed by MinIO or any other
// S3-compatible service reachable through minio-go.
//
//	store, err := minio.Dial(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: accessKey,
//	    SecretKey: secretKey,
//	    Bucket:    "datasets",
//	    Prefix:    "caches/ag_news",
//	})
//
// Streaming uploads use multipart parts of 16 MiB. Manifests are stored with
// an application/json content type.
package minio
