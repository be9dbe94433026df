package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"superinvestorResearch/internal/simulator"
)

const tradingDaysPerYear = 252.0

// SeriesStats summarises an index series. Percentages are in percent.
type SeriesStats struct {
	First        string
	Last         string
	InitialValue float64
	FinalValue   float64
	TotalReturn  float64
	AnnualReturn float64 // geometric, 252 observations per year
	Volatility   float64 // annualised stddev of observation-to-observation returns
	MaxDrawdown  float64
	NumPoints    int
}

// Describe computes summary statistics of s.
func Describe(s simulator.Series) (*SeriesStats, error) {
	n := s.Len()
	if n < 3 {
		return nil, fmt.Errorf("need at least 3 observations for statistics, got %d", n)
	}
	values := s.Values()
	initial, final := values[0], values[n-1]
	if initial <= 0 {
		return nil, fmt.Errorf("invalid initial value: %f", initial)
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		} else {
			returns = append(returns, 0)
		}
	}

	years := float64(len(returns)) / tradingDaysPerYear
	annual := math.Pow(final/initial, 1/years) - 1
	vol := stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)

	st := &SeriesStats{
		First:        s.Label(0),
		Last:         s.Label(n - 1),
		InitialValue: initial,
		FinalValue:   final,
		TotalReturn:  (final - initial) / initial * 100,
		AnnualReturn: annual * 100,
		Volatility:   vol * 100,
		MaxDrawdown:  maxDrawdown(values) * 100,
		NumPoints:    n,
	}
	if math.IsNaN(st.AnnualReturn) || math.IsInf(st.AnnualReturn, 0) {
		return nil, fmt.Errorf("invalid annual return: %f", st.AnnualReturn)
	}
	if math.IsNaN(st.Volatility) || math.IsInf(st.Volatility, 0) {
		return nil, fmt.Errorf("invalid volatility: %f", st.Volatility)
	}
	return st, nil
}

// maxDrawdown is the largest peak-to-trough decline as a fraction of the peak.
func maxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	maxDD := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
