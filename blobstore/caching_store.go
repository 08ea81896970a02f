package blobstore

import (
	"context"

	"github.com/hupe1980/vecport/internal/cache"
)

// CachingStore wraps a Store and adds read-through caching of whole
// payloads. Bulk runs that revisit inputs (retries, re-runs with different
// settings) avoid refetching from slow backends.
//
// Writes invalidate the cached payload for the written name.
type CachingStore struct {
	inner Store
	cache cache.ByteCache
}

// NewCachingStore creates a new CachingStore.
func NewCachingStore(inner Store, c cache.ByteCache) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: c,
	}
}

// Open opens a blob for reading. On a cache miss the payload is read in
// full from the inner store and cached.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	key := cache.Key{Kind: cache.KindPayload, Path: name}

	if data, ok := s.cache.Get(ctx, key); ok {
		return &memoryBlob{data: data}, nil
	}

	data, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, data)

	return &memoryBlob{data: data}, nil
}

// Create creates a new writable blob on the inner store. The cached
// payload for name is invalidated when the blob is closed; since Close
// timing is not observable here, invalidation happens eagerly.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put writes a blob and invalidates its cached payload.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob and invalidates its cached payload.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List returns the inner store's listing. Listings are not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// CacheStats returns hit/miss counters of the underlying cache.
func (s *CachingStore) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Kind == cache.KindPayload && key.Path == name
	})
}
