// Package codec centralizes output-document and manifest encoding.
//
// Codec selection is a compatibility boundary: the emitted document is a
// versioned interchange format, and published manifests record the codec
// name so artifacts can be decoded by the codec that wrote them.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// IndentMarshaler is an optional interface for codecs that can emit
// pretty-printed output. Indentation affects whitespace only, never the
// data model.
type IndentMarshaler interface {
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
}

// ByName returns a built-in codec by its stable name.
//
// Manifests are self-describing: they store the codec name in their
// header so a published document can be validated on load.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
