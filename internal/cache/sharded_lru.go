package cache

import (
	"context"
	"hash/maphash"
	"sync"

	"github.com/hupe1980/vecport/internal/resource"
)

const numShards = 64

// ShardedLRUByteCache is a sharded LRU cache for high-concurrency workloads.
// It distributes entries across 64 shards to reduce lock contention when
// many bulk workers share one cache.
type ShardedLRUByteCache struct {
	shards [numShards]*LRUByteCache
	seed   maphash.Seed
}

// NewShardedLRUByteCache creates a new sharded LRU cache.
// The capacity is divided evenly across all shards.
func NewShardedLRUByteCache(capacity int64, rc *resource.Controller) *ShardedLRUByteCache {
	shardCapacity := capacity / numShards
	if shardCapacity < 1 {
		shardCapacity = 1
	}

	s := &ShardedLRUByteCache{
		seed: maphash.MakeSeed(),
	}

	for i := range numShards {
		s.shards[i] = NewLRUByteCache(shardCapacity, rc)
	}

	return s
}

// shard returns the shard for a given key using a fast hash.
func (s *ShardedLRUByteCache) shard(key Key) *LRUByteCache {
	var h maphash.Hash
	h.SetSeed(s.seed)

	_ = h.WriteByte(byte(key.Kind))
	_, _ = h.WriteString(key.Path)

	idx := h.Sum64() % numShards
	return s.shards[idx]
}

// Get returns a cached blob.
func (s *ShardedLRUByteCache) Get(ctx context.Context, key Key) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

// Set caches a blob.
func (s *ShardedLRUByteCache) Set(ctx context.Context, key Key, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate.
// This iterates all shards, which is expensive but rare.
func (s *ShardedLRUByteCache) Invalidate(predicate func(key Key) bool) {
	var wg sync.WaitGroup
	wg.Add(numShards)

	for i := range numShards {
		go func(shard *LRUByteCache) {
			defer wg.Done()
			shard.Invalidate(predicate)
		}(s.shards[i])
	}

	wg.Wait()
}

// Close closes all shards.
func (s *ShardedLRUByteCache) Close() error {
	for i := range numShards {
		if err := s.shards[i].Close(); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns aggregated hit/miss statistics.
func (s *ShardedLRUByteCache) Stats() (hits, misses int64) {
	for i := range numShards {
		h, m := s.shards[i].Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRUByteCache) Size() int64 {
	var total int64
	for i := range numShards {
		total += s.shards[i].Size()
	}
	return total
}
