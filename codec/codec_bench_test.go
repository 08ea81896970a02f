package codec

import (
	"testing"
)

type benchRecord struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

type benchDocument struct {
	Version    int           `json:"version"`
	Dimension  int           `json:"dimension"`
	Count      int           `json:"count"`
	Embeddings []benchRecord `json:"embeddings"`
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func benchDoc() benchDocument {
	records := make([]benchRecord, 64)
	for i := range records {
		vec := make([]float64, 128)
		for j := range vec {
			vec[j] = float64(i*j%97) / 96.0
		}
		records[i] = benchRecord{ID: "item_" + string(rune('a'+i%26)), Vector: vec}
	}
	return benchDocument{
		Version:    1,
		Dimension:  128,
		Count:      len(records),
		Embeddings: records,
	}
}

func BenchmarkCodec_Marshal_Document(b *testing.B) {
	doc := benchDoc()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, doc) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, doc) })
}

func BenchmarkCodec_Unmarshal_Document(b *testing.B) {
	doc := benchDoc()
	jsonData := MustMarshal(JSON{}, doc)

	b.Run("stdlib", func(b *testing.B) {
		var sink benchDocument
		benchmarkCodecUnmarshal(b, JSON{}, jsonData, &sink)
		_ = sink
	})
	b.Run("go-json", func(b *testing.B) {
		var sink benchDocument
		benchmarkCodecUnmarshal(b, GoJSON{}, jsonData, &sink)
		_ = sink
	})
}
