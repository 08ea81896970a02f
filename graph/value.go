// Package graph defines the ordered object-graph model shared by the
// deserialization front end and shape detection.
//
// Loaders produce *Value trees; package extract walks them. Mappings
// preserve insertion order because detection semantics depend on it:
// the first array-like member wins fallback resolution, and synthetic
// identifiers count previously emitted pairs.
//
// # Node Variants
//
//   - KindMapping: ordered key/value members with O(1) lookup
//   - KindSequence: ordered list of values
//   - KindScalar: null, bool, string or number leaf
//
// Numbers keep their source lexeme (via json.Number) so identifier
// stringification reproduces the input spelling.
package graph

import (
	"encoding/json"
	"strconv"
)

// Kind discriminates the three node variants of a Value.
type Kind uint8

const (
	// KindScalar is a leaf node: null, bool, string or number.
	KindScalar Kind = iota
	// KindMapping is an ordered set of key/value members.
	KindMapping
	// KindSequence is an ordered list of values.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// Member is a single mapping entry.
type Member struct {
	Key   string
	Value *Value
}

// Value is one node of a deserialized object graph. Use the
// constructors; the zero value is the null scalar.
//
// Values are built once by a loader and read afterwards; they are not
// safe for concurrent mutation.
type Value struct {
	kind    Kind
	scalar  any // nil, bool, string or json.Number
	members []Member
	index   map[string]int
	items   []*Value
}

// Mapping returns an empty ordered mapping node.
func Mapping() *Value {
	return &Value{kind: KindMapping, index: make(map[string]int)}
}

// Sequence returns a sequence node holding items.
func Sequence(items ...*Value) *Value {
	return &Value{kind: KindSequence, items: items}
}

// String returns a string scalar.
func String(s string) *Value { return &Value{scalar: s} }

// Number returns a numeric scalar from its source lexeme (e.g. "0.25").
func Number(lexeme string) *Value { return &Value{scalar: json.Number(lexeme)} }

// Int returns a numeric scalar for i.
func Int(i int64) *Value { return Number(strconv.FormatInt(i, 10)) }

// Float returns a numeric scalar for f.
func Float(f float64) *Value { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// Bool returns a boolean scalar.
func Bool(b bool) *Value { return &Value{scalar: b} }

// Null returns the null scalar.
func Null() *Value { return &Value{} }

// Kind reports the node variant.
func (v *Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null scalar.
func (v *Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// Scalar returns the underlying scalar value (nil, bool, string or
// json.Number). It returns nil for mappings and sequences.
func (v *Value) Scalar() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Set appends a member to a mapping node. When the key already exists
// the value is replaced in place, keeping the original position.
func (v *Value) Set(key string, val *Value) {
	if i, ok := v.index[key]; ok {
		v.members[i].Value = val
		return
	}
	v.index[key] = len(v.members)
	v.members = append(v.members, Member{Key: key, Value: val})
}

// Get looks up a mapping member by key.
func (v *Value) Get(key string) (*Value, bool) {
	i, ok := v.index[key]
	if !ok {
		return nil, false
	}
	return v.members[i].Value, true
}

// Members returns mapping members in insertion order. The slice is
// shared with the node; callers must not mutate it.
func (v *Value) Members() []Member { return v.members }

// Append adds items to a sequence node.
func (v *Value) Append(items ...*Value) {
	v.items = append(v.items, items...)
}

// Items returns sequence items in order. The slice is shared with the
// node; callers must not mutate it.
func (v *Value) Items() []*Value { return v.items }

// Len returns the member or item count, or 0 for scalars.
func (v *Value) Len() int {
	switch v.kind {
	case KindMapping:
		return len(v.members)
	case KindSequence:
		return len(v.items)
	default:
		return 0
	}
}

// Text renders a scalar the way identifiers are stringified: strings
// verbatim, numbers by their lexeme, booleans as "true"/"false", null
// as "null". Non-scalar nodes render as "".
func (v *Value) Text() string {
	if v.kind != KindScalar {
		return ""
	}
	switch s := v.scalar.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return "null"
	}
}
