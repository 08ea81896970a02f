package vecport

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/extract"
	"github.com/hupe1980/vecport/load"
	"github.com/hupe1980/vecport/vector"
)

var (
	// ErrDeserialization is returned when the input bytes cannot be decoded
	// into an object graph.
	ErrDeserialization = errors.New("deserialization failed")

	// ErrUnsupportedStructure is returned when the top-level shape of the
	// input matches none of the recognized layouts.
	ErrUnsupportedStructure = errors.New("unsupported structure")

	// ErrNoEmbeddingsFound is returned when the input decodes cleanly but
	// yields no usable embeddings.
	ErrNoEmbeddingsFound = errors.New("no embeddings found")

	// ErrUnsupportedVectorType is returned when a vector element cannot be
	// interpreted as a number.
	ErrUnsupportedVectorType = errors.New("unsupported vector type")

	// ErrInvalidPrecision is returned when the configured rounding precision
	// is negative.
	ErrInvalidPrecision = errors.New("precision must not be negative")

	// ErrNotFound is returned when a referenced blob does not exist.
	ErrNotFound = errors.New("not found")
)

// RecordError ties a conversion failure to the record that caused it.
//
// It is returned from Convert in fail-fast mode. The original underlying
// error can be accessed via errors.Unwrap.
type RecordError struct {
	ID    string
	cause error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %q: %v", e.ID, e.cause)
}

func (e *RecordError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Input decode failures.
	if errors.Is(err, load.ErrDeserialize) {
		return fmt.Errorf("%w: %w", ErrDeserialization, err)
	}

	// Shape and element normalization.
	if errors.Is(err, extract.ErrUnsupportedStructure) {
		return fmt.Errorf("%w: %w", ErrUnsupportedStructure, err)
	}
	if errors.Is(err, vector.ErrUnsupportedType) {
		return fmt.Errorf("%w: %w", ErrUnsupportedVectorType, err)
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
