// Package document defines the canonical interchange document emitted
// after extraction and its serialization.
//
// The wire format is a compatibility contract: key names and field
// order are fixed, and Version must be incremented on any breaking
// schema change. Pretty printing affects whitespace only.
package document

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/vecport/codec"
)

// SchemaVersion is stamped into every emitted document.
const SchemaVersion = 1

var (
	// ErrNonFiniteValue is returned when a vector component is NaN or
	// infinite, which the wire format cannot represent.
	ErrNonFiniteValue = errors.New("non-finite vector component")

	// ErrVersionMismatch is returned when decoding a document written
	// with an incompatible schema version.
	ErrVersionMismatch = errors.New("document version mismatch")
)

// NonFiniteError names the record and component that broke encoding.
//
// The classification can be accessed via errors.Unwrap and matches
// ErrNonFiniteValue.
type NonFiniteError struct {
	ID    string
	Index int
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("record %q: component %d is %v", e.ID, e.Index, e.Value)
}

func (e *NonFiniteError) Unwrap() error { return ErrNonFiniteValue }

// Record is one canonical embedding.
type Record struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// Document is the canonical output. The JSON field order
// (version, dimension, count, embeddings) is part of the compatibility
// contract for downstream consumers.
type Document struct {
	Version    int      `json:"version"`
	Dimension  int      `json:"dimension"`
	Count      int      `json:"count"`
	Embeddings []Record `json:"embeddings"`
}

// New assembles a document from processed records. Dimension is taken
// from the first record and Count always equals len(records).
func New(records []Record) *Document {
	dim := 0
	if len(records) > 0 {
		dim = len(records[0].Vector)
	}
	return &Document{
		Version:    SchemaVersion,
		Dimension:  dim,
		Count:      len(records),
		Embeddings: records,
	}
}

// Encode serializes doc with the given codec. When pretty is set and
// the codec supports indentation, the output is indented with two
// spaces; data content is identical either way. Encoding fails with an
// error matching ErrNonFiniteValue if any component is NaN or infinite.
func Encode(doc *Document, c codec.Codec, pretty bool) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	if err := checkFinite(doc); err != nil {
		return nil, err
	}
	if pretty {
		if im, ok := c.(codec.IndentMarshaler); ok {
			return im.MarshalIndent(doc, "", "  ")
		}
	}
	return c.Marshal(doc)
}

// Decode parses a document and validates its schema version.
func Decode(data []byte, c codec.Codec) (*Document, error) {
	if c == nil {
		c = codec.Default
	}
	var doc Document
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, doc.Version, SchemaVersion)
	}
	return &doc, nil
}

func checkFinite(doc *Document) error {
	for _, rec := range doc.Embeddings {
		for i, x := range rec.Vector {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return &NonFiniteError{ID: rec.ID, Index: i, Value: x}
			}
		}
	}
	return nil
}

// Schema returns a JSON Schema description of the wire format, suitable
// for handing to downstream consumers.
func Schema() []byte {
	return []byte(jsonSchema)
}

const jsonSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Embedding document",
  "type": "object",
  "required": ["version", "dimension", "count", "embeddings"],
  "properties": {
    "version": {"type": "integer", "const": 1},
    "dimension": {"type": "integer", "minimum": 0},
    "count": {"type": "integer", "minimum": 0},
    "embeddings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "vector"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "vector": {"type": "array", "items": {"type": "number"}}
        }
      }
    }
  }
}
`
