package integration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecport"
	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/bulk"
	"github.com/hupe1980/vecport/document"
	"github.com/hupe1980/vecport/internal/compress"
	"github.com/hupe1980/vecport/publish"
	"github.com/hupe1980/vecport/sink/sqlite"
	"github.com/hupe1980/vecport/testutil"
)

func TestE2E_PublishReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// 1. Convert and publish
	rng := testutil.NewRNG(42)
	records := rng.Records(50, 16)

	conv, err := vecport.New(vecport.WithSortByID(true), vecport.WithNormalize(true))
	require.NoError(t, err)

	doc, err := conv.ConvertBytes(ctx, testutil.RecordsPayload(records))
	require.NoError(t, err)
	require.Equal(t, 50, doc.Count)
	require.Equal(t, 16, doc.Dimension)

	encoded, err := conv.Encode(ctx, doc)
	require.NoError(t, err)

	pub := publish.NewPublisher(blobstore.NewLocalStore(dir))
	m, err := pub.Publish(ctx, encoded, publish.Meta{
		Dimension: doc.Dimension,
		Count:     doc.Count,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, m.Sequence)

	// 2. Reload through a fresh publisher and verify
	reloaded := publish.NewPublisher(blobstore.NewLocalStore(dir))

	current, err := reloaded.Current(ctx)
	require.NoError(t, err)
	require.NoError(t, reloaded.Verify(ctx, current))

	got, _, err := reloaded.CurrentDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Embeddings, got.Embeddings)

	// 3. Sequence numbering continues across instances
	m2, err := reloaded.Publish(ctx, encoded, publish.Meta{
		Dimension: doc.Dimension,
		Count:     doc.Count,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, m2.Sequence)
}

func TestE2E_CompressedPublish(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	rng := testutil.NewRNG(7)
	conv, err := vecport.New()
	require.NoError(t, err)

	doc, err := conv.ConvertBytes(ctx, testutil.MappingPayload(rng.Records(20, 8)))
	require.NoError(t, err)

	encoded, err := conv.Encode(ctx, doc)
	require.NoError(t, err)
	compressed, err := compress.Encode(encoded, compress.Zstd)
	require.NoError(t, err)

	pub := publish.NewPublisher(blobstore.NewLocalStore(dir))
	m, err := pub.Publish(ctx, compressed, publish.Meta{
		Dimension: doc.Dimension,
		Count:     doc.Count,
		Extension: ".json.zst",
	})
	require.NoError(t, err)

	// Document decompresses transparently.
	got, err := pub.Document(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, doc.Embeddings, got.Embeddings)
}

func TestE2E_BulkToSQLite(t *testing.T) {
	ctx := context.Background()
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	// 1. Seed inputs in three layouts
	rng := testutil.NewRNG(99)
	src := blobstore.NewLocalStore(srcDir)
	require.NoError(t, src.Put(ctx, "a.json", testutil.MappingPayload(rng.Records(5, 4))))
	require.NoError(t, src.Put(ctx, "b.json", testutil.RecordsPayload(rng.Records(3, 4))))
	require.NoError(t, src.Put(ctx, "c.yaml", testutil.YAMLPayload(rng.Records(2, 4))))

	// 2. Bulk convert
	runner, err := bulk.NewRunner(src, blobstore.NewLocalStore(dstDir))
	require.NoError(t, err)

	report, err := runner.RunAll(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 3, report.Converted)
	require.Zero(t, report.Failed)
	require.Equal(t, 10, report.Records)

	// 3. Load each converted document into the sink and read it back
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "embeddings.db"))
	require.NoError(t, err)
	defer db.Close()

	sink, err := sqlite.New(db)
	require.NoError(t, err)

	dst := blobstore.NewLocalStore(dstDir)
	names, err := dst.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, names, 3)

	for _, name := range names {
		data, err := blobstore.ReadAll(ctx, dst, name)
		require.NoError(t, err)

		doc, err := document.Decode(data, nil)
		require.NoError(t, err)

		require.NoError(t, sink.Write(ctx, name, doc))

		got, err := sink.Read(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, doc.Embeddings, got.Embeddings, "run %s", name)
	}

	runs, err := sink.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
