package cache

import (
	"context"
)

// Kind is used to separate key spaces and tuning.
type Kind uint8

const (
	KindUnknown  Kind = iota
	KindPayload       // raw input payloads
	KindDocument      // encoded output documents
)

// Key identifies a cached byte blob. Keys must be stable across processes:
// Path is the blob name within its store.
type Key struct {
	Kind Kind
	Path string
}

// ByteCache is a byte-oriented cache for immutable blobs.
// Returned slices must be treated as read-only.
type ByteCache interface {
	// Get returns a cached blob. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a blob. Implementations may copy or retain; caller must treat b as immutable.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Close releases any resources (e.g. background workers).
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
