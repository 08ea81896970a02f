// Package load turns raw input bytes into object graphs.
//
// Loading is a black box to the rest of the pipeline: bytes go in, an
// ordered graph.Value comes out, and any parse problem surfaces as an
// error matching ErrDeserialize. Compressed payloads (zstd, gzip, lz4
// frames) are sniffed by magic bytes and unwrapped transparently.
//
// # Formats
//
//   - FormatJSON: strict JSON, decoded token-wise to preserve key order
//   - FormatYAML: YAML 1.2, a JSON superset, via the yaml.v3 node API
//   - FormatAuto: JSON first, then YAML
package load

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecport/graph"
	"github.com/hupe1980/vecport/internal/compress"
)

// ErrDeserialize is returned when input bytes cannot be parsed into an
// object graph. The pipeline never retries a failed load.
var ErrDeserialize = errors.New("cannot deserialize input")

// Loader parses one payload format.
// Implementations must be safe for concurrent use.
type Loader interface {
	Load(data []byte) (*graph.Value, error)
	Name() string
}

// Format selects the payload format for Load.
type Format uint8

const (
	// FormatAuto resolves the format by content.
	FormatAuto Format = iota
	// FormatJSON parses strict JSON.
	FormatJSON
	// FormatYAML parses YAML.
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// ParseFormat resolves a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, fmt.Errorf("unknown input format %q", s)
	}
}

// Options configure Load.
type Options struct {
	// Format selects the parser. Default: FormatAuto.
	Format Format
}

// DefaultOptions are the defaults used by Load.
var DefaultOptions = Options{
	Format: FormatAuto,
}

// Load unwraps compression, picks the loader for the configured format
// and parses data into an object graph.
func Load(data []byte, optFns ...func(o *Options)) (*graph.Value, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	payload, _, err := compress.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialize, err)
	}

	switch opts.Format {
	case FormatJSON:
		return JSONLoader{}.Load(payload)
	case FormatYAML:
		return YAMLLoader{}.Load(payload)
	default:
		return AutoLoader{}.Load(payload)
	}
}

// ByName returns a built-in loader by its stable name.
func ByName(name string) (Loader, bool) {
	switch name {
	case "json":
		return JSONLoader{}, true
	case "yaml":
		return YAMLLoader{}, true
	case "auto":
		return AutoLoader{}, true
	default:
		return nil, false
	}
}

// AutoLoader resolves the payload format by content: JSON first (the
// common case), then YAML, which accepts a superset of JSON.
type AutoLoader struct{}

// Name returns the unique name of the loader ("auto").
func (AutoLoader) Name() string { return "auto" }

// Load parses data, trying JSON before YAML.
func (AutoLoader) Load(data []byte) (*graph.Value, error) {
	v, jsonErr := JSONLoader{}.Load(data)
	if jsonErr == nil {
		return v, nil
	}
	if v, err := (YAMLLoader{}).Load(data); err == nil {
		return v, nil
	}
	// The JSON error is the more precise diagnostic for typical inputs.
	return nil, jsonErr
}
