package simulator

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Strategy selects one purchase point per segment.
type Strategy string

const (
	Random     Strategy = "random"
	EqualSpace Strategy = "equal_space"
	Optimal    Strategy = "optimal"
	Worst      Strategy = "worst"
)

// Strategies lists every recognised strategy in reporting order.
var Strategies = []Strategy{Random, EqualSpace, Optimal, Worst}

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case Random, EqualSpace, Optimal, Worst:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want random, equal_space, optimal or worst)", s)
}

// Randomized reports whether the strategy draws random numbers and therefore
// honours repetitions.
func (st Strategy) Randomized() bool { return st == Random || st == EqualSpace }

// PurchasePlan holds absolute series positions, one per segment.
type PurchasePlan []int

// RepetitionMode decides how the trials of a randomized strategy are folded
// into one estimate.
type RepetitionMode int

const (
	// Averaged reports the mean estimate over all trials.
	Averaged RepetitionMode = iota
	// LastTrialOnly draws every trial but reports the estimate of the final
	// one only.
	LastTrialOnly
)

func (m RepetitionMode) String() string {
	if m == LastTrialOnly {
		return "last"
	}
	return "averaged"
}

func ParseRepetitionMode(s string) (RepetitionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "averaged", "mean":
		return Averaged, nil
	case "last", "last_trial", "lasttrialonly":
		return LastTrialOnly, nil
	}
	return Averaged, fmt.Errorf("unknown repetition mode %q (want averaged or last)", s)
}

// samplePlan picks a uniformly random element in each segment.
func (m *Simulator) samplePlan() PurchasePlan {
	plan := make(PurchasePlan, len(m.segments))
	for i, g := range m.segments {
		plan[i] = g.Start + m.rng.IntN(g.Len())
	}
	return plan
}

// equalSpacePlan draws one offset and applies it to every segment, clamped
// to the segment's last element.
func (m *Simulator) equalSpacePlan() PurchasePlan {
	maxLast := 0
	for _, g := range m.segments {
		maxLast = max(maxLast, g.LastIndex())
	}
	offset := 0
	if maxLast > 0 {
		offset = m.rng.IntN(maxLast)
	}
	plan := make(PurchasePlan, len(m.segments))
	for i, g := range m.segments {
		plan[i] = g.Start + min(offset, g.LastIndex())
	}
	return plan
}

// extremePlan picks the first minimum (lowest) or maximum of each segment.
func (m *Simulator) extremePlan(lowest bool) PurchasePlan {
	plan := make(PurchasePlan, len(m.segments))
	for i, g := range m.segments {
		window := m.series.values[g.Start:g.End]
		if lowest {
			plan[i] = g.Start + floats.MinIdx(window)
		} else {
			plan[i] = g.Start + floats.MaxIdx(window)
		}
	}
	return plan
}
