// Package vector implements coercion, normalization and rounding of
// embedding vectors.
package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/vecport/graph"
)

// DefaultEpsilon is the norm threshold below which normalization leaves
// a vector untouched.
const DefaultEpsilon = 1e-12

// ErrUnsupportedType is returned when a value cannot be coerced into a
// float64 vector.
var ErrUnsupportedType = errors.New("unsupported vector type")

// ElementError reports a single component that could not be coerced.
//
// The underlying classification can be accessed via errors.Unwrap and
// matches ErrUnsupportedType.
type ElementError struct {
	Index int
	Got   string
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: cannot coerce %s to float64", e.Index, e.Got)
}

func (e *ElementError) Unwrap() error { return ErrUnsupportedType }

// Coerce materializes an array-like graph value into a []float64.
//
// Every element is cast individually: numbers directly, booleans to 1
// and 0, strings through decimal parsing. Anything else fails with an
// error matching ErrUnsupportedType, as does a non-array-like input.
func Coerce(v *graph.Value) ([]float64, error) {
	if v == nil || v.Kind() != graph.KindSequence {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedType, kindOf(v))
	}

	items := v.Items()
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := coerceElement(i, item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func coerceElement(i int, v *graph.Value) (float64, error) {
	if v.Kind() != graph.KindScalar {
		return 0, &ElementError{Index: i, Got: v.Kind().String()}
	}
	switch s := v.Scalar().(type) {
	case json.Number:
		f, err := s.Float64()
		if err != nil {
			return 0, &ElementError{Index: i, Got: strconv.Quote(s.String())}
		}
		return f, nil
	case bool:
		if s {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, &ElementError{Index: i, Got: strconv.Quote(s)}
		}
		return f, nil
	default:
		return 0, &ElementError{Index: i, Got: "null"}
	}
}

// Normalize scales vec to unit L2 norm. Vectors whose norm is below
// epsilon are returned unchanged, protecting against division by a
// near-zero norm. Pass DefaultEpsilon unless the caller overrides it.
func Normalize(vec []float64, epsilon float64) []float64 {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm < epsilon {
		return vec
	}

	out := make([]float64, len(vec))
	for i, x := range vec {
		out[i] = x / norm
	}
	return out
}

// Round reduces each component to the given decimal precision using
// round-half-up: floor(x*10^p + 0.5) / 10^p. Half-up is deliberate;
// half-to-even would change output bytes at tie values. precision must
// be non-negative (validated by the caller).
//
// Rounding an already-rounded vector at the same precision is a no-op.
func Round(vec []float64, precision int) []float64 {
	factor := math.Pow(10, float64(precision))
	out := make([]float64, len(vec))
	for i, x := range vec {
		out[i] = math.Floor(x*factor+0.5) / factor
	}
	return out
}

func kindOf(v *graph.Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}
