package simulator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IndexKind tells how a series is indexed. It is resolved once, when the
// series is built, and never inferred again.
type IndexKind int

const (
	UnknownIndex IndexKind = iota
	Chronological
	Positional
)

func (k IndexKind) String() string {
	switch k {
	case Chronological:
		return "chronological"
	case Positional:
		return "positional"
	default:
		return "unknown"
	}
}

// dateLayouts are tried in order by ParseIndex.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// Series is an immutable ordered sequence of (index, value) pairs.
type Series struct {
	kind   IndexKind
	dates  []time.Time // only for Chronological
	values []float64
}

// NewChronological builds a date-indexed series. Dates must be strictly
// increasing and values finite and non-negative.
func NewChronological(dates []time.Time, values []float64) (Series, error) {
	if len(dates) != len(values) {
		return Series{}, fmt.Errorf("%w: %d dates for %d values", ErrInvalidValue, len(dates), len(values))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return Series{}, fmt.Errorf("%w: %s then %s at position %d", ErrUnorderedIndex,
				dates[i-1].Format(time.DateOnly), dates[i].Format(time.DateOnly), i)
		}
	}
	if err := checkValues(values); err != nil {
		return Series{}, err
	}
	return Series{
		kind:   Chronological,
		dates:  append([]time.Time(nil), dates...),
		values: append([]float64(nil), values...),
	}, nil
}

// NewPositional builds a series indexed by plain positions 0..n-1.
func NewPositional(values []float64) (Series, error) {
	if err := checkValues(values); err != nil {
		return Series{}, err
	}
	return Series{kind: Positional, values: append([]float64(nil), values...)}, nil
}

// ParseIndex resolves the index kind from raw labels, as read from a file.
// Labels that all parse as dates give a chronological series; labels that are
// exactly the positions 0..n-1 give a positional one. Anything else fails
// with ErrUnsupportedIndexKind.
func ParseIndex(labels []string, values []float64) (Series, error) {
	if len(labels) != len(values) {
		return Series{}, fmt.Errorf("%w: %d labels for %d values", ErrInvalidValue, len(labels), len(values))
	}
	if len(labels) == 0 {
		return NewPositional(nil)
	}
	if dates, ok := parseDates(labels); ok {
		return NewChronological(dates, values)
	}
	for i, l := range labels {
		p, err := strconv.Atoi(strings.TrimSpace(l))
		if err != nil || p != i {
			return Series{}, fmt.Errorf("%w: label %q at position %d", ErrUnsupportedIndexKind, l, i)
		}
	}
	return NewPositional(values)
}

func parseDates(labels []string) ([]time.Time, bool) {
	for _, layout := range dateLayouts {
		dates := make([]time.Time, 0, len(labels))
		for _, l := range labels {
			d, err := time.Parse(layout, strings.TrimSpace(l))
			if err != nil {
				break
			}
			dates = append(dates, d)
		}
		if len(dates) == len(labels) {
			return dates, true
		}
	}
	return nil, false
}

func checkValues(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %v at position %d", ErrInvalidValue, v, i)
		}
	}
	return nil
}

func (s Series) Kind() IndexKind { return s.kind }
func (s Series) Len() int        { return len(s.values) }

// Value returns the value at position i.
func (s Series) Value(i int) float64 { return s.values[i] }

// Date returns the date at position i, or the zero time for a positional
// series.
func (s Series) Date(i int) time.Time {
	if s.kind != Chronological {
		return time.Time{}
	}
	return s.dates[i]
}

// Values returns a copy of the values.
func (s Series) Values() []float64 { return append([]float64(nil), s.values...) }

// Label renders the index at position i for display and export.
func (s Series) Label(i int) string {
	if s.kind == Chronological {
		return s.dates[i].Format(time.DateOnly)
	}
	return strconv.Itoa(i)
}
