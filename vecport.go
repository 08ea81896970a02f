// Package vecport converts heterogeneously shaped embedding exports into a
// canonical, versioned interchange document.
//
// Tooling that produces embeddings rarely agrees on a serialization layout:
// one exporter writes a mapping of id to vector, the next nests vectors
// inside per-item records, a third emits (id, vector) pairs. Vecport
// recognizes the common layouts, coerces vector components to float64,
// optionally L2-normalizes, rounds to a fixed precision, and emits a single
// stable JSON schema that downstream loaders can rely on.
//
// # Recognized Layouts
//
// The structure detector dispatches on the top level of the decoded input:
//
//   - mapping of id -> vector: {"alice": [0.1, 0.2]}
//   - mapping of id -> record: {"alice": {"embedding": [0.1, 0.2]}}
//     ("embedding" wins over "vector"; as a last resort the first
//     sequence-valued member is used)
//   - sequence of records: [{"id": "alice", "embedding": [0.1, 0.2]}]
//     (identifier from "id", "name" or "label"; synthetic item_<n>
//     identifiers are assigned when none is present)
//   - sequence of pairs: [["alice", [0.1, 0.2]]]
//
// Entries that carry no usable vector are skipped, not fatal. Inputs whose
// top level is a scalar are rejected with ErrUnsupportedStructure.
//
// # Quick Start
//
//	ctx := context.Background()
//	c, err := vecport.New(
//	    vecport.WithPrecision(6),
//	    vecport.WithNormalize(true),
//	    vecport.WithSortByID(true),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	out, err := c.ExportBytes(ctx, raw) // raw JSON or YAML, optionally compressed
//
// # Output
//
// The output document is versioned and its field order is stable:
//
//	{"version":1,"dimension":3,"count":2,"embeddings":[{"id":"alice","vector":[...]},...]}
//
// # Pipeline Order
//
// Records are sorted (optional), then truncated (optional), then coerced,
// normalized and rounded. Truncation happens after sorting, so a capped
// export keeps the lexicographically smallest identifiers. The document
// dimension is taken from the first processed record; records with a
// diverging dimension are kept and logged.
package vecport

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/codec"
	"github.com/hupe1980/vecport/document"
	"github.com/hupe1980/vecport/extract"
	"github.com/hupe1980/vecport/graph"
	"github.com/hupe1980/vecport/load"
	"github.com/hupe1980/vecport/vector"
)

// DefaultPrecision is the number of decimal places vector components are
// rounded to unless WithPrecision is given.
const DefaultPrecision = 6

// Converter turns decoded object graphs into canonical embedding documents.
//
// A Converter is immutable after New and safe for concurrent use.
type Converter struct {
	precision   int
	maxItems    int
	sortByID    bool
	normalize   bool
	pretty      bool
	failFast    bool
	epsilon     float64
	codec       codec.Codec
	loadOptions []func(*load.Options)
	metrics     MetricsCollector
	logger      *Logger
}

// New creates a Converter.
func New(optFns ...Option) (*Converter, error) {
	opts := applyOptions(optFns)

	if opts.precision < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrecision, opts.precision)
	}
	if opts.epsilon <= 0 {
		opts.epsilon = vector.DefaultEpsilon
	}

	// Set codec (default if not specified)
	cdc := opts.codec
	if cdc == nil {
		cdc = codec.Default
	}

	return &Converter{
		precision:   opts.precision,
		maxItems:    opts.maxItems,
		sortByID:    opts.sortByID,
		normalize:   opts.normalize,
		pretty:      opts.pretty,
		failFast:    opts.failFast,
		epsilon:     opts.epsilon,
		codec:       cdc,
		loadOptions: opts.loadOptions,
		metrics:     opts.metricsCollector,
		logger:      opts.logger,
	}, nil
}

// Convert runs the conversion pipeline on a decoded object graph.
//
// Records whose vector fails coercion are skipped and logged unless
// WithFailFast is set, in which case the first failure is returned as a
// *RecordError. Convert returns ErrNoEmbeddingsFound when detection yields
// no candidates, or when every candidate fails coercion.
func (c *Converter) Convert(ctx context.Context, root *graph.Value) (*document.Document, error) {
	start := time.Now()

	pairs, stats, err := extract.Detect(root)
	if err != nil {
		err = translateError(err)
		c.metrics.RecordConvert(0, 0, time.Since(start), err)
		c.logger.LogConvert(ctx, 0, 0, 0, err)
		return nil, err
	}
	c.metrics.RecordDetect(stats.Emitted, stats.Dropped(), time.Since(start))
	c.logger.LogDetect(ctx, stats.Shape.String(), stats.Emitted, stats.Dropped())

	if len(pairs) == 0 {
		err := fmt.Errorf("%w: input contains no vectors", ErrNoEmbeddingsFound)
		c.metrics.RecordConvert(0, 0, time.Since(start), err)
		c.logger.LogConvert(ctx, 0, 0, 0, err)
		return nil, err
	}

	// Sort before truncating: a capped export keeps the smallest identifiers.
	if c.sortByID {
		slices.SortStableFunc(pairs, func(a, b extract.Pair) int {
			return strings.Compare(a.ID, b.ID)
		})
	}
	if c.maxItems > 0 && len(pairs) > c.maxItems {
		pairs = pairs[:c.maxItems]
	}

	records := make([]document.Record, 0, len(pairs))
	skipped := 0
	dimension := 0

	for _, pair := range pairs {
		vec, err := vector.Coerce(pair.Raw)
		if err != nil {
			err = translateError(err)
			if c.failFast {
				recErr := &RecordError{ID: pair.ID, cause: err}
				c.metrics.RecordConvert(len(records), skipped, time.Since(start), recErr)
				c.logger.LogConvert(ctx, dimension, len(records), skipped, recErr)
				return nil, recErr
			}
			skipped++
			c.logger.LogSkip(ctx, pair.ID, err)
			continue
		}

		if c.normalize {
			vec = vector.Normalize(vec, c.epsilon)
		}
		vec = vector.Round(vec, c.precision)

		if len(records) == 0 {
			dimension = len(vec)
		} else if len(vec) != dimension {
			c.logger.LogDimensionDivergence(ctx, pair.ID, dimension, len(vec))
		}

		records = append(records, document.Record{ID: pair.ID, Vector: vec})
	}

	if len(records) == 0 {
		err := fmt.Errorf("%w: all %d candidates failed coercion", ErrNoEmbeddingsFound, skipped)
		c.metrics.RecordConvert(0, skipped, time.Since(start), err)
		c.logger.LogConvert(ctx, 0, 0, skipped, err)
		return nil, err
	}

	doc := document.New(records)
	c.metrics.RecordConvert(doc.Count, skipped, time.Since(start), nil)
	c.logger.LogConvert(ctx, doc.Dimension, doc.Count, skipped, nil)
	return doc, nil
}

// ConvertBytes decodes raw input bytes (JSON or YAML, optionally
// zstd/gzip/lz4 compressed) and runs the conversion pipeline.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte) (*document.Document, error) {
	start := time.Now()

	root, err := load.Load(data, c.loadOptions...)
	err = translateError(err)
	c.metrics.RecordLoad(len(data), time.Since(start), err)
	c.logger.LogLoad(ctx, len(data), err)
	if err != nil {
		return nil, err
	}

	return c.Convert(ctx, root)
}

// ConvertBlob reads the named blob from a store and converts it.
// A missing blob is reported as ErrNotFound.
func (c *Converter) ConvertBlob(ctx context.Context, store blobstore.Store, name string) (*document.Document, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, translateError(err)
	}
	return c.ConvertBytes(ctx, data)
}

// Encode serializes a document with the configured codec.
//
// Field order (version, dimension, count, embeddings) is stable. With
// WithPretty the output is indented; indentation never changes field order
// or values. Documents holding NaN or infinite components are rejected with
// a *document.NonFiniteError.
func (c *Converter) Encode(ctx context.Context, doc *document.Document) ([]byte, error) {
	start := time.Now()

	data, err := document.Encode(doc, c.codec, c.pretty)
	c.metrics.RecordEncode(len(data), time.Since(start), err)
	c.logger.LogEncode(ctx, len(data), err)
	return data, err
}

// Export converts a decoded object graph and encodes the result.
func (c *Converter) Export(ctx context.Context, root *graph.Value) ([]byte, error) {
	doc, err := c.Convert(ctx, root)
	if err != nil {
		return nil, err
	}
	return c.Encode(ctx, doc)
}

// ExportBytes converts raw input bytes and encodes the result.
func (c *Converter) ExportBytes(ctx context.Context, data []byte) ([]byte, error) {
	doc, err := c.ConvertBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	return c.Encode(ctx, doc)
}

// ExportBlob reads the named blob from src, converts it, and writes the
// encoded document to dst under outName.
func (c *Converter) ExportBlob(ctx context.Context, src blobstore.Store, name string, dst blobstore.Store, outName string) error {
	doc, err := c.ConvertBlob(ctx, src, name)
	if err != nil {
		return err
	}
	data, err := c.Encode(ctx, doc)
	if err != nil {
		return err
	}
	return dst.Put(ctx, outName, data)
}
