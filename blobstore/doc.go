// Package blobstore provides storage abstraction for payloads and documents.
//
// Store is the interface for reading and writing data blobs (input payloads,
// encoded documents, manifests). Implementations must be safe for concurrent
// use.
//
// # Built-in Implementations
//
//   - MemoryStore: In-memory store for tests and ephemeral pipelines
//   - LocalStore: Local filesystem with mmap reads and atomic writes
//   - s3.Store: Amazon S3 with range reads and parallel uploads
//   - minio.Store: MinIO and other S3-compatible systems
//   - CachingStore: Read-through cache wrapper around any Store
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for writing
//	    Put(ctx, name, data) error               // Whole-blob write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// For cloud backends, implement RangeReader for efficient partial reads:
//
//	type RangeReader interface {
//	    ReadRange(ctx, off, length int64) (io.ReadCloser, error)
//	}
//
// Local backends can expose their mapping through Mappable so whole-blob
// reads avoid a copy.
package blobstore
