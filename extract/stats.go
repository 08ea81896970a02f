package extract

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Shape identifies the recognized top-level layout of an input graph.
type Shape uint8

const (
	// ShapeUnknown means detection has not run or failed.
	ShapeUnknown Shape = iota
	// ShapeMapping is a top-level mapping of id to value.
	ShapeMapping
	// ShapeSequence is a top-level sequence of records or pairs.
	ShapeSequence
)

func (s Shape) String() string {
	switch s {
	case ShapeMapping:
		return "mapping"
	case ShapeSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// DropReason classifies why an input entry produced no pair.
type DropReason uint8

const (
	// DropScalarValue marks a mapping entry whose value was a bare scalar.
	DropScalarValue DropReason = iota
	// DropNoVector marks an entry with no discoverable non-null vector.
	DropNoVector
	// DropBadElement marks a sequence element of unusable shape.
	DropBadElement

	dropReasonCount
)

func (r DropReason) String() string {
	switch r {
	case DropScalarValue:
		return "scalar_value"
	case DropNoVector:
		return "no_vector"
	case DropBadElement:
		return "bad_element"
	default:
		return "unknown"
	}
}

// Stats records what detection dropped, for observability. Individual
// drops are never fatal; callers surface them through logs and metrics.
type Stats struct {
	// Shape is the resolved top-level layout.
	Shape Shape
	// Emitted is the number of pairs produced.
	Emitted int

	byReason  [dropReasonCount]int
	positions *roaring.Bitmap
}

func newStats(shape Shape) *Stats {
	return &Stats{
		Shape:     shape,
		positions: roaring.New(),
	}
}

func (s *Stats) drop(pos int, r DropReason) {
	s.byReason[r]++
	s.positions.Add(uint32(pos))
}

// Dropped returns the total number of dropped entries.
func (s *Stats) Dropped() int {
	total := 0
	for _, n := range s.byReason {
		total += n
	}
	return total
}

// DroppedBy returns the number of entries dropped for reason r.
func (s *Stats) DroppedBy(r DropReason) int {
	if r >= dropReasonCount {
		return 0
	}
	return s.byReason[r]
}

// Positions returns the zero-based source positions of dropped entries
// in ascending order.
func (s *Stats) Positions() []uint32 {
	return s.positions.ToArray()
}
