// Package publish implements versioned, atomically switched exports on top
// of a blob store.
//
// Every publish writes two blobs and then flips a pointer:
//
//	EXPORT-000001-9f86d081.json      the document bytes
//	MANIFEST-000001-9f86d081.json    version, codec, size, CRC32C checksum
//	CURRENT                          name of the current manifest
//
// Readers resolve CURRENT to a manifest and verify the document against the
// recorded size and checksum before decoding, so a half-written or corrupted
// export is detected instead of silently served. The pointer flip is the
// commit point: until it succeeds the previous export stays current.
//
// The scheme works on any blobstore.Store. Local stores give atomic pointer
// flips through rename; the s3 package's DDBCommitStore adds conditional
// writes so concurrent publishers cannot silently overwrite each other.
//
//	pub := publish.NewPublisher(store)
//	m, err := pub.Publish(ctx, data, publish.Meta{Dimension: 4, Count: 100})
//	...
//	doc, m, err := pub.CurrentDocument(ctx)
package publish
