// Package vecport converts heterogeneously shaped embedding payloads
// into a canonical, versioned JSON document.
//
// Producers hand over mappings of id to vector, nested mappings, record
// sequences, or (id, vector) tuples; vecport detects the layout, coerces
// components to float64, optionally normalizes and orders records, and
// emits:
//
//	{"version":1,"dimension":N,"count":M,"embeddings":[{"id":"...","vector":[...]},...]}
//
// # Quick Start
//
//	c, _ := vecport.New()
//	out, _ := c.ExportBytes(ctx, payload) // raw JSON/YAML in, document out
//
// With pipeline options:
//
//	c, _ := vecport.New(
//	    vecport.WithSortByID(true),  // stable lexicographic order
//	    vecport.WithNormalize(true), // L2-normalize before rounding
//	    vecport.WithPrecision(4),    // round half up to 4 decimals
//	)
//
// # Blob Storage
//
// Conversions run against any blobstore.Store, so payloads can live on
// the local file system, in memory, or in object storage:
//
//	store := blobstore.NewLocalStore("./payloads")
//	doc, _ := c.ConvertBlob(ctx, store, "embeddings.json")
//
// # Degradation Model
//
// Input producers are uncontrolled. Detection drops malformed entries
// and counts them; coercion skips records whose vectors cannot become
// float64. Only an unusable top level or an empty result fails, with
// errors matching ErrUnsupportedStructure and ErrNoEmbeddingsFound.
// WithFailFast turns the first bad record into an error instead.
//
// # Key Features
//
//   - Four input layouts with per-entry resolution
//   - JSON and YAML payloads, transparently decompressed (zstd/gzip/lz4)
//   - Deterministic output: stable ordering, caps, half-up rounding
//   - Versioned publishing with manifests and checksums (publish)
//   - Bulk directory conversion with bounded concurrency (bulk)
//   - SQLite persistence for converted documents (sink/sqlite)
package vecport
