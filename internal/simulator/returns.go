package simulator

import (
	"fmt"
	"math"
	"time"
)

const daysPerYear = 365.0

// AnnualisedReturn is the compound annual growth rate of going from start to
// end over the given number of days: (end/start)^(365/days) - 1.
func AnnualisedReturn(start, end, days float64) (float64, error) {
	if start == 0 {
		return 0, fmt.Errorf("%w: zero starting value", ErrDegenerateInput)
	}
	if days == 0 {
		return 0, fmt.Errorf("%w: zero elapsed days", ErrDegenerateInput)
	}
	r := math.Pow(end/start, daysPerYear/days) - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("%w: %v -> %v over %v days", ErrDegenerateInput, start, end, days)
	}
	return r, nil
}

// SeriesReturn is the annualised return of buying at position from and
// holding until the last element of s.
//
// The elapsed time depends on the index kind:
//   - chronological: whole calendar days between now and the purchase date
//   - positional: the number of elements held, one day each
func SeriesReturn(s Series, from int, now time.Time) (float64, error) {
	if from < 0 || from >= s.Len() {
		return 0, fmt.Errorf("purchase position %d outside series of length %d", from, s.Len())
	}
	var days float64
	switch s.Kind() {
	case Chronological:
		days = float64(chronologicalDays(s.Date(from), now))
	case Positional:
		days = float64(positionalDays(s, from))
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedIndexKind, s.Kind())
	}
	return AnnualisedReturn(s.Value(from), s.Value(s.Len()-1), days)
}

func chronologicalDays(from, now time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func positionalDays(s Series, from int) int {
	return s.Len() - from
}
