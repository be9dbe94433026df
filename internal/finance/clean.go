package finance

import (
	"math"
	"time"

	"superinvestorResearch/internal/simulator"
)

// filterNonNegative removes observations whose value is negative. Missing
// observations are kept so the caller decides whether to drop them.
func filterNonNegative(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !o.Missing && o.Value < 0 {
			continue
		}
		out = append(out, o)
	}
	return out
}

// dropMissing removes observations without a value.
func dropMissing(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Missing {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ToSeries turns observations into a chronological series. A repeated date
// keeps the last observation, as Yahoo re-sends the running session bar.
// Without dropNA a missing value is carried as NaN and rejected by the
// series constructor.
func ToSeries(obs []Observation, dropNA bool) (simulator.Series, error) {
	if dropNA {
		obs = dropMissing(obs)
	}
	dates := make([]time.Time, 0, len(obs))
	values := make([]float64, 0, len(obs))
	for _, o := range obs {
		v := o.Value
		if o.Missing {
			v = math.NaN()
		}
		if n := len(dates); n > 0 && o.Date.Equal(dates[n-1]) {
			values[n-1] = v
			continue
		}
		dates = append(dates, o.Date)
		values = append(values, v)
	}
	return simulator.NewChronological(dates, values)
}
