// Package s3 provides S3 implementations of the blobstore.Store interface.
//
// # Usage
//
//	client := s3.NewFromConfig(cfg)
//	store := s3store.NewStore(client, "my-bucket", "exports/")
//
//	doc, err := conv.ConvertBlob(ctx, store, "runs/7/payload.json")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large documents
//   - CRC32C checksums on whole-blob writes
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// ExpressStore targets S3 Express One Zone directory buckets, and
// DDBCommitStore adds DynamoDB-backed atomic CURRENT pointer commits for
// concurrent publishers.
package s3
