package sqlite

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecport/document"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "sink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	require.NoError(t, EnsureSchema(db))
	// Idempotent.
	require.NoError(t, EnsureSchema(db))
}

func TestSink_WriteRead(t *testing.T) {
	ctx := context.Background()
	sink, err := New(openTestDB(t))
	require.NoError(t, err)

	doc := document.New([]document.Record{
		{ID: "alpha", Vector: []float64{0.6, 0.8}},
		{ID: "beta", Vector: []float64{-1.25, 0.0001}},
		{ID: "gamma", Vector: []float64{math.Pi, -0.5}},
	})

	require.NoError(t, sink.Write(ctx, "run-1", doc))

	got, err := sink.Read(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, doc.Dimension, got.Dimension)
	assert.Equal(t, doc.Count, got.Count)
	assert.Equal(t, doc.Embeddings, got.Embeddings)
}

func TestSink_ReplaceRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sink, err := New(db)
	require.NoError(t, err)

	first := document.New([]document.Record{
		{ID: "a", Vector: []float64{1, 2, 3}},
		{ID: "b", Vector: []float64{4, 5, 6}},
	})
	require.NoError(t, sink.Write(ctx, "run-1", first))

	second := document.New([]document.Record{
		{ID: "c", Vector: []float64{7, 8}},
	})
	require.NoError(t, sink.Write(ctx, "run-1", second))

	got, err := sink.Read(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, second.Embeddings, got.Embeddings)

	// No leftover rows from the first write.
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM embeddings WHERE run_id = ?`, "run-1").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSink_DuplicateIDs(t *testing.T) {
	ctx := context.Background()
	sink, err := New(openTestDB(t))
	require.NoError(t, err)

	// Pair-shaped inputs can repeat ids; the sink must keep every record.
	doc := document.New([]document.Record{
		{ID: "dup", Vector: []float64{1, 0}},
		{ID: "dup", Vector: []float64{0, 1}},
	})
	require.NoError(t, sink.Write(ctx, "run-1", doc))

	got, err := sink.Read(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Embeddings, got.Embeddings)
}

func TestSink_ReadMissing(t *testing.T) {
	ctx := context.Background()
	sink, err := New(openTestDB(t))
	require.NoError(t, err)

	_, err = sink.Read(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSink_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	sink, err := New(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, sink.Write(ctx, "run-1", document.New(nil)))

	got, err := sink.Read(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
	assert.Empty(t, got.Embeddings)
}

func TestSink_Runs(t *testing.T) {
	ctx := context.Background()
	sink, err := New(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, sink.Write(ctx, "run-b", document.New([]document.Record{
		{ID: "x", Vector: []float64{1, 2, 3}},
	})))
	require.NoError(t, sink.Write(ctx, "run-a", document.New([]document.Record{
		{ID: "y", Vector: []float64{4, 5}},
		{ID: "z", Vector: []float64{6, 7}},
	})))

	runs, err := sink.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-a", runs[0].RunID)
	assert.Equal(t, 2, runs[0].Dimension)
	assert.Equal(t, 2, runs[0].Count)
	assert.False(t, runs[0].CreatedAt.IsZero())

	assert.Equal(t, "run-b", runs[1].RunID)
	assert.Equal(t, 3, runs[1].Dimension)
	assert.Equal(t, 1, runs[1].Count)
}

func TestSink_Delete(t *testing.T) {
	ctx := context.Background()
	sink, err := New(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, sink.Write(ctx, "keep", document.New([]document.Record{
		{ID: "a", Vector: []float64{1}},
	})))
	require.NoError(t, sink.Write(ctx, "drop", document.New([]document.Record{
		{ID: "b", Vector: []float64{2}},
	})))

	require.NoError(t, sink.Delete(ctx, "drop"))
	require.NoError(t, sink.Delete(ctx, "drop")) // idempotent

	_, err = sink.Read(ctx, "drop")
	assert.ErrorIs(t, err, ErrRunNotFound)

	got, err := sink.Read(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestVectorEncoding(t *testing.T) {
	vecs := [][]float64{
		nil,
		{0},
		{1.5, -2.25, 1e-300},
		{math.MaxFloat64, math.SmallestNonzeroFloat64},
	}
	for _, vec := range vecs {
		decoded, err := decodeVector(encodeVector(vec))
		require.NoError(t, err)
		assert.Equal(t, len(vec), len(decoded))
		for i := range vec {
			assert.Equal(t, vec[i], decoded[i])
		}
	}

	_, err := decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
