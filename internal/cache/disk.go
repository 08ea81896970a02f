package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/vecport/internal/resource"
)

// DiskCacheConfig holds configuration for the disk cache.
type DiskCacheConfig struct {
	// RootDir is the directory where cache files are stored.
	RootDir string
	// MaxSizeBytes is the maximum size of the cache in bytes.
	MaxSizeBytes int64
	// MaxConcurrentWrites limits background disk writes to prevent unbounded goroutines.
	// Defaults to 16 if <= 0.
	MaxConcurrentWrites int64
	// Controller, when set, throttles spill writes against the global
	// background and IO budgets. A denied spill skips caching.
	Controller *resource.Controller
}

// DiskByteCache implements ByteCache backed by the local filesystem.
// It maintains an in-memory LRU index of the files on disk, so cached
// payloads survive process restarts. Bulk runs that repeatedly pull the
// same remote inputs warm up once and read locally afterwards.
type DiskByteCache struct {
	mu          sync.Mutex
	rootDir     string
	maxSize     int64
	currentSize int64
	rc          *resource.Controller

	// writeSem limits concurrent background writes to prevent goroutine explosion.
	writeSem *semaphore.Weighted

	// Index
	items   map[Key]*lruEntry
	lruHead *lruEntry
	lruTail *lruEntry
	wg      sync.WaitGroup

	// Stats
	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	key        Key
	size       int64
	filePath   string
	next, prev *lruEntry
}

// NewDiskByteCache creates a new disk-backed byte cache.
// The directory is scanned on startup to rebuild the index, so entries
// written by a previous process stay usable.
func NewDiskByteCache(config DiskCacheConfig) (*DiskByteCache, error) {
	if err := os.MkdirAll(config.RootDir, 0755); err != nil {
		return nil, err
	}

	maxWrites := config.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 16
	}

	c := &DiskByteCache{
		rootDir:  config.RootDir,
		maxSize:  config.MaxSizeBytes,
		rc:       config.Controller,
		items:    make(map[Key]*lruEntry),
		writeSem: semaphore.NewWeighted(maxWrites),
	}

	// The scan is synchronous: Get must never miss an entry that is
	// already on disk, or a later Set would double-count its size.
	c.scanExistingFiles()

	return c, nil
}

func (c *DiskByteCache) scanExistingFiles() {
	_ = filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally ignore walk errors to continue scanning
		}
		if info.IsDir() {
			return nil
		}

		// Stale temp files and foreign files fail to parse and are skipped.
		key, ok := c.parsePathToKey(path)
		if !ok {
			return nil
		}

		c.addToLRU(key, path, info.Size())
		return nil
	})
}

// encodeKeyToRelPath creates a relative path string from a key.
// Format: <Path>/<Kind>.blk with the blob name preserved as directory
// structure. Keys without a path land under _misc.
func (c *DiskByteCache) encodeKeyToRelPath(key Key) string {
	fileName := fmt.Sprintf("%d.blk", key.Kind)
	if key.Path != "" {
		return filepath.Join(filepath.FromSlash(key.Path), fileName)
	}
	return filepath.Join("_misc", fileName)
}

func (c *DiskByteCache) parsePathToKey(absPath string) (Key, bool) {
	relPath, err := filepath.Rel(c.rootDir, absPath)
	if err != nil {
		return Key{}, false
	}

	dir, file := filepath.Split(relPath)

	var kind int
	n, err := fmt.Sscanf(file, "%d.blk", &kind)
	if err != nil || n != 1 {
		return Key{}, false
	}

	k := Key{Kind: Kind(kind)}
	if dir != "" {
		dir = strings.TrimSuffix(dir, string(filepath.Separator))
		if dir != "_misc" {
			k.Path = filepath.ToSlash(dir)
		}
	}

	return k, true
}

func (c *DiskByteCache) Get(ctx context.Context, key Key) ([]byte, bool) {
	c.mu.Lock()
	ent, ok := c.items[key]
	if ok {
		c.moveToFront(ent)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	data, err := os.ReadFile(ent.filePath)
	if err != nil {
		// File vanished underneath the index. Drop the entry.
		c.mu.Lock()
		c.removeEntry(ent)
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

func (c *DiskByteCache) Set(ctx context.Context, key Key, b []byte) {
	c.mu.Lock()

	// Entries are immutable between invalidations: a changed payload is
	// removed via Invalidate before it is re-cached, so an existing entry
	// only needs a refresh of its LRU position.
	if ent, ok := c.items[key]; ok {
		c.moveToFront(ent)
		c.mu.Unlock()
		return
	}

	size := int64(len(b))
	relPath := c.encodeKeyToRelPath(key)
	absPath := filepath.Join(c.rootDir, relPath)

	// Reserve space before the write starts.
	for c.currentSize+size > c.maxSize {
		if c.lruTail == nil {
			// Single item larger than the whole cache.
			break
		}
		c.evictOne()
	}

	c.mu.Unlock()

	// If all write slots are busy, skip caching this payload.
	if !c.writeSem.TryAcquire(1) {
		return
	}

	// Spills are optional background IO: without a free background slot and
	// room in the IO budget, the payload is simply not cached.
	if !c.rc.TryAcquireBackground() {
		c.writeSem.Release(1)
		return
	}
	if !c.rc.TryAcquireIO(int(size)) {
		c.rc.ReleaseBackground()
		c.writeSem.Release(1)
		return
	}

	// The index is updated only after the write completes. Concurrent Gets
	// miss and hit the backend again during warm-up, which is acceptable.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.writeSem.Release(1)
		defer c.rc.ReleaseBackground()

		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return
		}

		tmpFile, err := os.CreateTemp(filepath.Dir(absPath), "tmp-blk-*")
		if err != nil {
			return
		}
		tmpName := tmpFile.Name()

		defer func() {
			if _, err := os.Stat(tmpName); err == nil {
				_ = os.Remove(tmpName)
			}
		}()

		if _, err := tmpFile.Write(b); err != nil {
			_ = tmpFile.Close() // Intentionally ignore: cleanup path
			return
		}
		if err := tmpFile.Close(); err != nil {
			return
		}

		if err := os.Rename(tmpName, absPath); err != nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		// Recheck capacity in case other writes landed first.
		for c.currentSize+size > c.maxSize {
			if c.lruTail == nil {
				break
			}
			c.evictOne()
		}

		c.addToLRU(key, absPath, size)
	}()
}

func (c *DiskByteCache) Invalidate(predicate func(key Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*lruEntry
	for k, ent := range c.items {
		if predicate(k) {
			toRemove = append(toRemove, ent)
		}
	}

	for _, ent := range toRemove {
		_ = os.Remove(ent.filePath)
		c.removeEntry(ent)
	}
}

// Close waits for all background writes to complete.
func (c *DiskByteCache) Close() error {
	c.wg.Wait()
	return nil
}

func (c *DiskByteCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Internal LRU helpers (must hold lock)

func (c *DiskByteCache) addToLRU(key Key, path string, size int64) {
	ent := &lruEntry{
		key:      key,
		filePath: path,
		size:     size,
	}
	c.items[key] = ent
	c.currentSize += size

	if c.lruHead == nil {
		c.lruHead = ent
		c.lruTail = ent
	} else {
		ent.next = c.lruHead
		c.lruHead.prev = ent
		c.lruHead = ent
	}
}

func (c *DiskByteCache) moveToFront(ent *lruEntry) {
	if c.lruHead == ent {
		return
	}

	// Detach
	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if c.lruTail == ent {
		c.lruTail = ent.prev
	}

	// Attach Front
	ent.next = c.lruHead
	ent.prev = nil
	if c.lruHead != nil {
		c.lruHead.prev = ent
	}
	c.lruHead = ent
	if c.lruTail == nil {
		c.lruTail = ent
	}
}

func (c *DiskByteCache) removeEntry(ent *lruEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.lruHead = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.lruTail = ent.prev
	}

	delete(c.items, ent.key)
	c.currentSize -= ent.size
}

func (c *DiskByteCache) evictOne() {
	if c.lruTail == nil {
		return
	}
	_ = os.Remove(c.lruTail.filePath)
	c.removeEntry(c.lruTail)
}
