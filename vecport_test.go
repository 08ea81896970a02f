package vecport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/document"
	"github.com/hupe1980/vecport/graph"
	"github.com/hupe1980/vecport/load"
)

func mustLoad(t *testing.T, src string) *graph.Value {
	t.Helper()
	v, err := load.Load([]byte(src))
	require.NoError(t, err)
	return v
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultPrecision, c.precision)
		assert.False(t, c.normalize)
		assert.False(t, c.sortByID)
	})

	t.Run("negative precision", func(t *testing.T) {
		_, err := New(WithPrecision(-1))
		assert.ErrorIs(t, err, ErrInvalidPrecision)
	})
}

func TestConvert(t *testing.T) {
	ctx := context.Background()

	t.Run("mapping of arrays", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"alice":[0.1,0.2],"bob":[0.3,0.4]}`))
		require.NoError(t, err)

		assert.Equal(t, 1, doc.Version)
		assert.Equal(t, 2, doc.Dimension)
		assert.Equal(t, 2, doc.Count)
		require.Len(t, doc.Embeddings, 2)
		assert.Equal(t, "alice", doc.Embeddings[0].ID)
		assert.Equal(t, []float64{0.1, 0.2}, doc.Embeddings[0].Vector)
	})

	t.Run("sort then truncate keeps smallest ids", func(t *testing.T) {
		c, err := New(WithSortByID(true), WithMaxItems(2))
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"mike":[3],"alice":[1],"bob":[2]}`))
		require.NoError(t, err)

		require.Equal(t, 2, doc.Count)
		assert.Equal(t, "alice", doc.Embeddings[0].ID)
		assert.Equal(t, "bob", doc.Embeddings[1].ID)
	})

	t.Run("truncate without sort keeps encounter order", func(t *testing.T) {
		c, err := New(WithMaxItems(2))
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"mike":[3],"alice":[1],"bob":[2]}`))
		require.NoError(t, err)

		require.Equal(t, 2, doc.Count)
		assert.Equal(t, "mike", doc.Embeddings[0].ID)
		assert.Equal(t, "alice", doc.Embeddings[1].ID)
	})

	t.Run("normalization", func(t *testing.T) {
		c, err := New(WithNormalize(true))
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"a":[3,4]}`))
		require.NoError(t, err)
		assert.Equal(t, []float64{0.6, 0.8}, doc.Embeddings[0].Vector)
	})

	t.Run("zero vector survives normalization", func(t *testing.T) {
		c, err := New(WithNormalize(true))
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"a":[0,0,0]}`))
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0}, doc.Embeddings[0].Vector)
	})

	t.Run("rounding", func(t *testing.T) {
		c, err := New(WithPrecision(3))
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"a":[0.12345,2.5]}`))
		require.NoError(t, err)
		assert.Equal(t, []float64{0.123, 2.5}, doc.Embeddings[0].Vector)
	})

	t.Run("string and bool components coerce", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"a":["1.5",true,false]}`))
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5, 1, 0}, doc.Embeddings[0].Vector)
	})

	t.Run("uncoercible record is skipped", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"bad":["x",2],"good":[1,2]}`))
		require.NoError(t, err)

		require.Equal(t, 1, doc.Count)
		assert.Equal(t, "good", doc.Embeddings[0].ID)
	})

	t.Run("fail fast surfaces record error", func(t *testing.T) {
		c, err := New(WithFailFast(true))
		require.NoError(t, err)

		_, err = c.Convert(ctx, mustLoad(t, `{"bad":["x",2],"good":[1,2]}`))
		require.Error(t, err)

		var recErr *RecordError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, "bad", recErr.ID)
		assert.ErrorIs(t, err, ErrUnsupportedVectorType)
	})

	t.Run("all candidates fail", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		_, err = c.Convert(ctx, mustLoad(t, `{"a":["x"],"b":[null]}`))
		assert.ErrorIs(t, err, ErrNoEmbeddingsFound)
	})

	t.Run("empty mapping", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		_, err = c.Convert(ctx, mustLoad(t, `{}`))
		assert.ErrorIs(t, err, ErrNoEmbeddingsFound)
	})

	t.Run("scalar root", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		_, err = c.Convert(ctx, mustLoad(t, `42`))
		assert.ErrorIs(t, err, ErrUnsupportedStructure)
	})

	t.Run("diverging dimensions are kept", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `{"a":[1,2],"b":[1,2,3]}`))
		require.NoError(t, err)

		assert.Equal(t, 2, doc.Dimension)
		assert.Equal(t, 2, doc.Count)
	})

	t.Run("nested records", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.Convert(ctx, mustLoad(t, `[{"id":"alice","embedding":[1,2]},{"name":"bob","vector":[3,4]}]`))
		require.NoError(t, err)

		require.Equal(t, 2, doc.Count)
		assert.Equal(t, "alice", doc.Embeddings[0].ID)
		assert.Equal(t, "bob", doc.Embeddings[1].ID)
	})
}

func TestConvertBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("json input", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.ConvertBytes(ctx, []byte(`{"alice":[1,2]}`))
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Count)
	})

	t.Run("yaml input", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		doc, err := c.ConvertBytes(ctx, []byte("alice: [1, 2]\nbob: [3, 4]\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Count)
	})

	t.Run("malformed input", func(t *testing.T) {
		c, err := New(WithLoadOptions(func(o *load.Options) {
			o.Format = load.FormatJSON
		}))
		require.NoError(t, err)

		_, err = c.ConvertBytes(ctx, []byte(`{"a":`))
		assert.ErrorIs(t, err, ErrDeserialization)
	})
}

func TestConvertBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip through store", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "input.json", []byte(`{"alice":[1,2]}`)))

		c, err := New()
		require.NoError(t, err)

		doc, err := c.ConvertBlob(ctx, store, "input.json")
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Count)
	})

	t.Run("missing blob", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		_, err = c.ConvertBlob(ctx, blobstore.NewMemoryStore(), "missing.json")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestExportBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("canonical field order", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		out, err := c.ExportBytes(ctx, []byte(`{"alice":[1,2]}`))
		require.NoError(t, err)
		assert.Equal(t, `{"version":1,"dimension":2,"count":1,"embeddings":[{"id":"alice","vector":[1,2]}]}`, string(out))
	})

	t.Run("pretty changes whitespace only", func(t *testing.T) {
		flat, err := New()
		require.NoError(t, err)
		pretty, err := New(WithPretty(true))
		require.NoError(t, err)

		input := []byte(`{"alice":[1,2],"bob":[3,4]}`)

		flatOut, err := flat.ExportBytes(ctx, input)
		require.NoError(t, err)
		prettyOut, err := pretty.ExportBytes(ctx, input)
		require.NoError(t, err)

		assert.NotEqual(t, flatOut, prettyOut)

		a, err := document.Decode(flatOut, nil)
		require.NoError(t, err)
		b, err := document.Decode(prettyOut, nil)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("non-finite component fails encode", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		_, err = c.ExportBytes(ctx, []byte(`{"a":["nan",1]}`))
		require.Error(t, err)

		var nfe *document.NonFiniteError
		require.ErrorAs(t, err, &nfe)
		assert.Equal(t, "a", nfe.ID)
	})
}

func TestExportBlob(t *testing.T) {
	ctx := context.Background()

	src := blobstore.NewMemoryStore()
	dst := blobstore.NewMemoryStore()
	require.NoError(t, src.Put(ctx, "in.yaml", []byte("alice: [1, 2]\n")))

	c, err := New(WithSortByID(true))
	require.NoError(t, err)

	require.NoError(t, c.ExportBlob(ctx, src, "in.yaml", dst, "out.json"))

	data, err := blobstore.ReadAll(ctx, dst, "out.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"dimension":2,"count":1,"embeddings":[{"id":"alice","vector":[1,2]}]}`, string(data))
}

func TestConverterMetrics(t *testing.T) {
	ctx := context.Background()

	metrics := &BasicMetricsCollector{}
	c, err := New(WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = c.ExportBytes(ctx, []byte(`{"bad":["x"],"good":[1,2]}`))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(1), stats.ConvertCount)
	assert.Equal(t, int64(1), stats.ConvertRecords)
	assert.Equal(t, int64(1), stats.ConvertSkipped)
	assert.Equal(t, int64(1), stats.EncodeCount)
	assert.Equal(t, int64(2), stats.DetectEmitted)
}

func TestRecordError(t *testing.T) {
	cause := errors.New("boom")
	err := &RecordError{ID: "alice", cause: cause}

	assert.Equal(t, `record "alice": boom`, err.Error())
	assert.ErrorIs(t, err, cause)
}
