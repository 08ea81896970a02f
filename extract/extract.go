// Package extract infers the layout of a deserialized object graph and
// flattens it into (identifier, raw vector) pairs.
//
// Input producers are uncontrolled and inconsistent, so detection
// favors graceful degradation: malformed entries are dropped and
// counted, never fatal. Only an unrecognized top-level layout fails.
//
// # Supported Layouts
//
//   - mapping of id -> array-like vector
//   - mapping of id -> nested mapping carrying the vector
//   - sequence of record mappings ("id"/"name"/"label" + "embedding"/"vector")
//   - sequence of (id, vector) two-element entries
//
// A single mapping or sequence may mix entry styles; resolution happens
// per entry.
package extract

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hupe1980/vecport/graph"
)

// ErrUnsupportedStructure is returned when the top level of the graph
// is neither mapping-like nor sequence-like.
var ErrUnsupportedStructure = errors.New("unsupported input structure")

// UnsupportedStructureError carries the offending top-level kind.
//
// The classification can be accessed via errors.Unwrap and matches
// ErrUnsupportedStructure.
type UnsupportedStructureError struct {
	Kind graph.Kind
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("unsupported input structure: top level is %s", e.Kind)
}

func (e *UnsupportedStructureError) Unwrap() error { return ErrUnsupportedStructure }

// Pair couples an identifier with the raw, uncoerced value resolved as
// its vector. The identifier is non-empty and the raw value non-null at
// emission time; no type check has happened yet.
type Pair struct {
	ID  string
	Raw *graph.Value
}

var (
	idKeys     = []string{"id", "name", "label"}
	vectorKeys = []string{"embedding", "vector"}
)

// Detect resolves the top-level layout of v once and dispatches to the
// matching extraction function. It returns the emitted pairs in source
// order together with drop statistics.
func Detect(v *graph.Value) ([]Pair, *Stats, error) {
	if v == nil {
		return nil, nil, &UnsupportedStructureError{Kind: graph.KindScalar}
	}
	switch v.Kind() {
	case graph.KindMapping:
		pairs, stats := detectMapping(v)
		return pairs, stats, nil
	case graph.KindSequence:
		pairs, stats := detectSequence(v)
		return pairs, stats, nil
	default:
		return nil, nil, &UnsupportedStructureError{Kind: v.Kind()}
	}
}

// detectMapping handles id -> value layouts. Entries resolve in
// insertion order: array-like values emit directly, nested mappings go
// through vectorMember, bare scalars drop.
func detectMapping(v *graph.Value) ([]Pair, *Stats) {
	stats := newStats(ShapeMapping)
	pairs := make([]Pair, 0, v.Len())

	for pos, m := range v.Members() {
		switch m.Value.Kind() {
		case graph.KindSequence:
			pairs = append(pairs, Pair{ID: m.Key, Raw: m.Value})
		case graph.KindMapping:
			raw, ok := vectorMember(m.Value)
			if !ok {
				stats.drop(pos, DropNoVector)
				continue
			}
			pairs = append(pairs, Pair{ID: m.Key, Raw: raw})
		default:
			stats.drop(pos, DropScalarValue)
		}
	}

	stats.Emitted = len(pairs)
	return pairs, stats
}

// vectorMember resolves the vector inside a nested mapping: the
// "embedding" member first, then "vector", then the first member whose
// own value is array-like. A null member counts as absent.
func vectorMember(m *graph.Value) (*graph.Value, bool) {
	for _, key := range vectorKeys {
		if raw, ok := m.Get(key); ok && !raw.IsNull() {
			return raw, true
		}
	}
	for _, mm := range m.Members() {
		if mm.Value.Kind() == graph.KindSequence {
			return mm.Value, true
		}
	}
	return nil, false
}

// detectSequence handles record and (id, vector) layouts. Elements
// resolve in order; anything else is skipped.
func detectSequence(v *graph.Value) ([]Pair, *Stats) {
	stats := newStats(ShapeSequence)
	pairs := make([]Pair, 0, v.Len())

	for pos, el := range v.Items() {
		switch {
		case el.Kind() == graph.KindMapping:
			p, ok := pairFromRecord(el, len(pairs))
			if !ok {
				stats.drop(pos, DropNoVector)
				continue
			}
			pairs = append(pairs, p)
		case el.Kind() == graph.KindSequence && el.Len() == 2:
			p, ok := pairFromTuple(el)
			if !ok {
				stats.drop(pos, DropBadElement)
				continue
			}
			pairs = append(pairs, p)
		default:
			stats.drop(pos, DropBadElement)
		}
	}

	stats.Emitted = len(pairs)
	return pairs, stats
}

// pairFromRecord extracts from a record-style mapping element. n is the
// number of pairs emitted so far across the whole sequence; it names
// synthetic identifiers, so earlier drops shift the numbering.
func pairFromRecord(el *graph.Value, n int) (Pair, bool) {
	raw, ok := recordVector(el)
	if !ok {
		return Pair{}, false
	}
	return Pair{ID: recordID(el, n), Raw: raw}, true
}

func recordID(el *graph.Value, n int) string {
	for _, key := range idKeys {
		v, ok := el.Get(key)
		if !ok || v.IsNull() {
			continue
		}
		if s := v.Text(); s != "" {
			return s
		}
	}
	return "item_" + strconv.Itoa(n)
}

func recordVector(el *graph.Value) (*graph.Value, bool) {
	for _, key := range vectorKeys {
		if v, ok := el.Get(key); ok && !v.IsNull() {
			return v, true
		}
	}
	return nil, false
}

// pairFromTuple extracts from a two-element (id, vector) entry. The
// second component is taken as-is without a type check; coercion sorts
// it out later. A first component that does not stringify to a usable
// identifier fails the entry.
func pairFromTuple(el *graph.Value) (Pair, bool) {
	items := el.Items()
	id := items[0].Text()
	if id == "" {
		return Pair{}, false
	}
	return Pair{ID: id, Raw: items[1]}, true
}
