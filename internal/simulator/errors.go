package simulator

import "errors"

var (
	// ErrUnsupportedIndexKind is returned when a series index is neither
	// chronological nor positional.
	ErrUnsupportedIndexKind = errors.New("unsupported index kind")
	// ErrInvalidSegmentCount is returned for a purchase count <= 0.
	ErrInvalidSegmentCount = errors.New("invalid segment count")
	// ErrEmptySegment is returned when more segments are requested than the
	// series has elements.
	ErrEmptySegment = errors.New("empty segment")
	// ErrDegenerateInput covers a zero starting value, zero elapsed days or a
	// non-finite annualised return.
	ErrDegenerateInput = errors.New("degenerate input")

	ErrInvalidRepetitions = errors.New("repetitions must be positive")
	ErrInvalidValue       = errors.New("invalid series value")
	ErrUnorderedIndex     = errors.New("series index is not strictly increasing")
)
