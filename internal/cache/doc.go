// Package cache provides LRU caching for blob payloads.
//
// Bulk runs read the same inputs repeatedly (retries, re-runs with new
// settings); the cache keeps hot payloads in memory so remote stores are
// not hit twice for the same bytes.
//
// # Implementations
//
//   - LRUByteCache: single-lock LRU, fine for one worker
//   - ShardedLRUByteCache: 64-way sharding for concurrent bulk workers
//   - DiskByteCache: spills payloads to a directory that survives restarts
//
// The in-memory caches integrate with resource.Controller for global
// memory limits: an entry that would exceed the limit is simply not
// cached.
package cache
