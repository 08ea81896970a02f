package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vecport/codec"
	"github.com/hupe1980/vecport/document"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Vector generates a vector with components in range [0, 1).
func (r *RNG) Vector(dim int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = r.rand.Float64()
	}
	return vec
}

// Vectors generates random vectors with components in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) Vectors(num int, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}

	return vectors
}

// Records generates num records with zero-padded identifiers, so
// lexicographic order and generation order coincide.
func (r *RNG) Records(num int, dim int) []document.Record {
	records := make([]document.Record, num)
	for i := range records {
		records[i] = document.Record{
			ID:     fmt.Sprintf("item-%04d", i),
			Vector: r.Vector(dim),
		}
	}
	return records
}

// MappingPayload encodes records as a JSON mapping of id to vector.
func MappingPayload(records []document.Record) []byte {
	m := make(map[string]any, len(records))
	for _, rec := range records {
		m[rec.ID] = rec.Vector
	}
	return codec.MustMarshal(codec.Default, m)
}

// NestedMappingPayload encodes records as a JSON mapping of id to an
// object carrying the vector under "embedding".
func NestedMappingPayload(records []document.Record) []byte {
	m := make(map[string]any, len(records))
	for _, rec := range records {
		m[rec.ID] = map[string]any{"embedding": rec.Vector}
	}
	return codec.MustMarshal(codec.Default, m)
}

// RecordsPayload encodes records as a JSON sequence of
// {"id": ..., "vector": ...} objects.
func RecordsPayload(records []document.Record) []byte {
	s := make([]any, len(records))
	for i, rec := range records {
		s[i] = map[string]any{"id": rec.ID, "vector": rec.Vector}
	}
	return codec.MustMarshal(codec.Default, s)
}

// TuplePayload encodes records as a JSON sequence of two-element
// [id, vector] entries.
func TuplePayload(records []document.Record) []byte {
	s := make([]any, len(records))
	for i, rec := range records {
		s[i] = []any{rec.ID, rec.Vector}
	}
	return codec.MustMarshal(codec.Default, s)
}

// YAMLPayload encodes records as a YAML mapping of id to vector.
func YAMLPayload(records []document.Record) []byte {
	m := make(map[string]any, len(records))
	for _, rec := range records {
		m[rec.ID] = rec.Vector
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		panic(err)
	}
	return data
}
