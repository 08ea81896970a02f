package blobstore

import (
	"context"
	"testing"

	"github.com/hupe1980/vecport/internal/cache"
)

func BenchmarkCachingStore_ReadAll(b *testing.B) {
	ctx := context.Background()
	payload := make([]byte, 1<<20)
	for i := range payload {
		payload[i] = byte(i)
	}

	inner := NewMemoryStore()
	if err := inner.Put(ctx, "in.bin", payload); err != nil {
		b.Fatal(err)
	}

	b.Run("uncached", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(payload)))
		for b.Loop() {
			if _, err := ReadAll(ctx, inner, "in.bin"); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cached", func(b *testing.B) {
		cached := NewCachingStore(inner, cache.NewLRUByteCache(4<<20, nil))
		if _, err := ReadAll(ctx, cached, "in.bin"); err != nil { // warm
			b.Fatal(err)
		}

		b.ReportAllocs()
		b.SetBytes(int64(len(payload)))
		for b.Loop() {
			if _, err := ReadAll(ctx, cached, "in.bin"); err != nil {
				b.Fatal(err)
			}
		}
	})
}
