// Package simulator estimates dollar-cost-averaging returns over an index
// series. The series is cut into as many equal windows as there are
// purchases and each strategy picks one purchase point per window; the
// estimate is the mean annualised return of holding every purchase until the
// end of the series.
package simulator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultRepetitions is the trial count of randomized strategies.
const DefaultRepetitions = 10

// Plotter receives every purchase plan a strategy produces when plotting is
// requested. It must not mutate the series.
type Plotter interface {
	PlotPurchases(strategy Strategy, s Series, plan PurchasePlan) error
}

var errNoPlotter = errors.New("plot requested but no plotter configured")

// Simulator binds a series to a purchase count. Segments are computed once.
type Simulator struct {
	series   Series
	segments []Segment
	rng      *rand.Rand
	now      func() time.Time
	plotter  Plotter
	mode     RepetitionMode
}

type Option func(*Simulator)

// WithRand sets the random source of the randomized strategies.
func WithRand(r *rand.Rand) Option { return func(m *Simulator) { m.rng = r } }

// WithClock sets the clock used for chronological elapsed time.
func WithClock(now func() time.Time) Option { return func(m *Simulator) { m.now = now } }

func WithPlotter(p Plotter) Option { return func(m *Simulator) { m.plotter = p } }

func WithRepetitionMode(mode RepetitionMode) Option {
	return func(m *Simulator) { m.mode = mode }
}

// New splits s into purchaseCount segments.
func New(s Series, purchaseCount int, opts ...Option) (*Simulator, error) {
	segs, err := Split(s, purchaseCount)
	if err != nil {
		return nil, err
	}
	m := &Simulator{
		series:   s,
		segments: segs,
		now:      time.Now,
		mode:     Averaged,
	}
	for _, o := range opts {
		o(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m, nil
}

// Segments returns a copy of the purchase windows.
func (m *Simulator) Segments() []Segment { return append([]Segment(nil), m.segments...) }

// RandomSampling buys at a uniformly random point of every window.
func (m *Simulator) RandomSampling(plot bool, repetitions int) (float64, error) {
	return m.repeat(Random, plot, repetitions, m.samplePlan)
}

// EqualSpace buys at the same random offset in every window.
func (m *Simulator) EqualSpace(plot bool, repetitions int) (float64, error) {
	return m.repeat(EqualSpace, plot, repetitions, m.equalSpacePlan)
}

// Optimal buys at the lowest value of every window.
func (m *Simulator) Optimal(plot bool) (float64, error) {
	return m.once(Optimal, plot, func() PurchasePlan { return m.extremePlan(true) })
}

// Worst buys at the highest value of every window.
func (m *Simulator) Worst(plot bool) (float64, error) {
	return m.once(Worst, plot, func() PurchasePlan { return m.extremePlan(false) })
}

// Plan returns the purchase plan of a deterministic strategy.
func (m *Simulator) Plan(st Strategy) (PurchasePlan, error) {
	if err := checkNonEmpty(m.segments); err != nil {
		return nil, err
	}
	switch st {
	case Optimal:
		return m.extremePlan(true), nil
	case Worst:
		return m.extremePlan(false), nil
	case Random:
		return m.samplePlan(), nil
	case EqualSpace:
		return m.equalSpacePlan(), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", st)
}

// Run dispatches to the strategy by name.
func (m *Simulator) Run(st Strategy, plot bool, repetitions int) (float64, error) {
	switch st {
	case Random:
		return m.RandomSampling(plot, repetitions)
	case EqualSpace:
		return m.EqualSpace(plot, repetitions)
	case Optimal:
		return m.Optimal(plot)
	case Worst:
		return m.Worst(plot)
	}
	return 0, fmt.Errorf("unknown strategy %q", st)
}

func (m *Simulator) once(st Strategy, plot bool, draw func() PurchasePlan) (float64, error) {
	if err := checkNonEmpty(m.segments); err != nil {
		return 0, err
	}
	plan := draw()
	if err := m.plot(st, plot, plan); err != nil {
		return 0, err
	}
	return m.evaluate(plan)
}

func (m *Simulator) repeat(st Strategy, plot bool, repetitions int, draw func() PurchasePlan) (float64, error) {
	if repetitions <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRepetitions, repetitions)
	}
	if err := checkNonEmpty(m.segments); err != nil {
		return 0, err
	}
	estimates := make([]float64, 0, repetitions)
	for i := 0; i < repetitions; i++ {
		plan := draw()
		if err := m.plot(st, plot, plan); err != nil {
			return 0, err
		}
		if m.mode == LastTrialOnly && i < repetitions-1 {
			continue
		}
		r, err := m.evaluate(plan)
		if err != nil {
			return 0, err
		}
		estimates = append(estimates, r)
	}
	return stat.Mean(estimates, nil), nil
}

func (m *Simulator) plot(st Strategy, plot bool, plan PurchasePlan) error {
	if !plot {
		return nil
	}
	if m.plotter == nil {
		return errNoPlotter
	}
	return m.plotter.PlotPurchases(st, m.series, plan)
}

// evaluate averages the annualised return of every purchase in the plan.
func (m *Simulator) evaluate(plan PurchasePlan) (float64, error) {
	now := m.now()
	returns := make([]float64, len(plan))
	for i, p := range plan {
		r, err := SeriesReturn(m.series, p, now)
		if err != nil {
			return 0, err
		}
		returns[i] = r
	}
	return stat.Mean(returns, nil), nil
}

// Options configures a single Simulate call.
type Options struct {
	Plot bool
	// Repetitions is the trial count of randomized strategies; zero means
	// DefaultRepetitions.
	Repetitions int
	Mode        RepetitionMode
	Plotter     Plotter
	Rand        *rand.Rand
	Now         func() time.Time
}

// Simulate evaluates one strategy over s with purchaseCount purchases.
func Simulate(s Series, purchaseCount int, st Strategy, opts Options) (float64, error) {
	reps := opts.Repetitions
	if reps == 0 {
		reps = DefaultRepetitions
	}
	if reps < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRepetitions, reps)
	}
	mopts := []Option{WithRepetitionMode(opts.Mode), WithPlotter(opts.Plotter)}
	if opts.Rand != nil {
		mopts = append(mopts, WithRand(opts.Rand))
	}
	if opts.Now != nil {
		mopts = append(mopts, WithClock(opts.Now))
	}
	m, err := New(s, purchaseCount, mopts...)
	if err != nil {
		return 0, err
	}
	return m.Run(st, opts.Plot, reps)
}
