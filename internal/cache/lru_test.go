package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecport/internal/resource"
)

func TestLRUByteCache(t *testing.T) {
	ctx := context.Background()

	t.Run("get and set", func(t *testing.T) {
		c := NewLRUByteCache(1024, nil)
		key := Key{Kind: KindPayload, Path: "in.json"}

		_, ok := c.Get(ctx, key)
		require.False(t, ok)

		c.Set(ctx, key, []byte("payload"))

		got, ok := c.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "payload", string(got))

		hits, misses := c.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("kinds are separate key spaces", func(t *testing.T) {
		c := NewLRUByteCache(1024, nil)
		c.Set(ctx, Key{Kind: KindPayload, Path: "x"}, []byte("raw"))
		c.Set(ctx, Key{Kind: KindDocument, Path: "x"}, []byte("doc"))

		got, ok := c.Get(ctx, Key{Kind: KindDocument, Path: "x"})
		require.True(t, ok)
		assert.Equal(t, "doc", string(got))
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewLRUByteCache(10, nil)
		c.Set(ctx, Key{Path: "a"}, []byte("aaaa"))
		c.Set(ctx, Key{Path: "b"}, []byte("bbbb"))

		// Touch a so b becomes the eviction candidate.
		_, ok := c.Get(ctx, Key{Path: "a"})
		require.True(t, ok)

		c.Set(ctx, Key{Path: "c"}, []byte("cccc"))

		_, ok = c.Get(ctx, Key{Path: "b"})
		assert.False(t, ok)
		_, ok = c.Get(ctx, Key{Path: "a"})
		assert.True(t, ok)
		assert.LessOrEqual(t, c.Size(), int64(10))
	})

	t.Run("oversized item is not cached", func(t *testing.T) {
		c := NewLRUByteCache(4, nil)
		c.Set(ctx, Key{Path: "big"}, []byte("too large"))

		_, ok := c.Get(ctx, Key{Path: "big"})
		assert.False(t, ok)
		assert.Equal(t, int64(0), c.Size())
	})

	t.Run("invalidate by predicate", func(t *testing.T) {
		c := NewLRUByteCache(1024, nil)
		c.Set(ctx, Key{Kind: KindPayload, Path: "keep"}, []byte("k"))
		c.Set(ctx, Key{Kind: KindPayload, Path: "drop"}, []byte("d"))

		c.Invalidate(func(key Key) bool { return key.Path == "drop" })

		_, ok := c.Get(ctx, Key{Kind: KindPayload, Path: "drop"})
		assert.False(t, ok)
		_, ok = c.Get(ctx, Key{Kind: KindPayload, Path: "keep"})
		assert.True(t, ok)
	})

	t.Run("respects controller memory limit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
		c := NewLRUByteCache(1024, rc)

		c.Set(ctx, Key{Path: "a"}, []byte("12345678"))
		_, ok := c.Get(ctx, Key{Path: "a"})
		require.True(t, ok)

		// Controller is exhausted, so this entry is rejected.
		c.Set(ctx, Key{Path: "b"}, []byte("x"))
		_, ok = c.Get(ctx, Key{Path: "b"})
		assert.False(t, ok)

		// Evicting a returns memory to the controller.
		c.Invalidate(func(key Key) bool { return key.Path == "a" })
		assert.Equal(t, int64(0), rc.MemoryUsage())

		c.Set(ctx, Key{Path: "b"}, []byte("x"))
		_, ok = c.Get(ctx, Key{Path: "b"})
		assert.True(t, ok)
	})

	t.Run("update existing key", func(t *testing.T) {
		c := NewLRUByteCache(1024, nil)
		key := Key{Path: "x"}

		c.Set(ctx, key, []byte("old"))
		c.Set(ctx, key, []byte("newer value"))

		got, ok := c.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "newer value", string(got))
		assert.Equal(t, int64(len("newer value")), c.Size())
	})
}
