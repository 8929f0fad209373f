// Package blobstore provides storage abstraction for published caches.
//
// BlobStore is the interface for reading and writing data blobs (store
// files, manifests). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap support
//   - MemoryStore: In-memory store for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
