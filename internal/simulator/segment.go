package simulator

import "fmt"

// Segment is the half-open window [Start, End) of a series, one purchase
// window of the simulation.
type Segment struct {
	Start int
	End   int
}

func (g Segment) Len() int { return g.End - g.Start }

// LastIndex is the offset of the last element relative to Start, -1 for an
// empty segment.
func (g Segment) LastIndex() int { return g.Len() - 1 }

// Split partitions s into n contiguous segments in order. The first L%n
// segments hold one element more than the others. When n exceeds the series
// length the trailing segments are empty; strategies reject those.
func Split(s Series, n int) ([]Segment, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegmentCount, n)
	}
	size, extra := s.Len()/n, s.Len()%n
	segs := make([]Segment, n)
	start := 0
	for i := range segs {
		l := size
		if i < extra {
			l++
		}
		segs[i] = Segment{Start: start, End: start + l}
		start += l
	}
	return segs, nil
}

func checkNonEmpty(segs []Segment) error {
	for i, g := range segs {
		if g.Len() == 0 {
			return fmt.Errorf("%w: segment %d of %d", ErrEmptySegment, i+1, len(segs))
		}
	}
	return nil
}
