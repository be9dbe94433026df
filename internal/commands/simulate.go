package commands

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strconv"

	"github.com/google/subcommands"

	"superinvestorResearch/internal/export"
	"superinvestorResearch/internal/finance"
	"superinvestorResearch/internal/simulator"
)

// simulateCmd implements the "simulate" command.
type simulateCmd struct {
	env         *Env
	purchases   int
	strategy    string
	repetitions int
	mode        string
	plot        bool
	plotDir     string
	input       string
	source      string
	seed        uint64
	stats       bool
}

func (*simulateCmd) Name() string { return "simulate" }
func (*simulateCmd) Synopsis() string {
	return "estimates the annualised return of periodic purchase strategies"
}
func (*simulateCmd) Usage() string {
	return `simulate -n N [-strategy random|equal_space|optimal|worst|all] [-repetitions 10]
         [-mode averaged|last] [-plot] [-plot-dir DIR] [-input FILE] [-source fred|yahoo]
         [-seed S] [-stats]:

Splits the index series into N windows, buys once per window according to the
strategy and holds every purchase until the last observation. Prints the
mean annualised return of the purchases, one line per strategy.

The series is read from -input (an index,value CSV as written by
sp500-series) or downloaded from -source.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.purchases, "n", 0, "number of purchases")
	f.StringVar(&c.strategy, "strategy", "all", "random, equal_space, optimal, worst or all")
	f.IntVar(&c.repetitions, "repetitions", simulator.DefaultRepetitions, "trials of the randomized strategies")
	f.StringVar(&c.mode, "mode", simulator.Averaged.String(), "how randomized trials combine: averaged or last")
	f.BoolVar(&c.plot, "plot", false, "render every purchase plan as a PNG chart")
	f.StringVar(&c.plotDir, "plot-dir", "", "chart directory (default $OUTPUT_DIR/plots)")
	f.StringVar(&c.input, "input", "", "index,value CSV file; downloads the S&P 500 when empty")
	f.StringVar(&c.source, "source", string(finance.SourceFRED), "download source: fred or yahoo")
	f.Uint64Var(&c.seed, "seed", 0, "random seed; 0 draws one")
	f.BoolVar(&c.stats, "stats", false, "also print summary statistics of the series")
}

func (c *simulateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	if c.purchases <= 0 {
		return env.usagef(c, "-n must be a positive number of purchases")
	}
	strategies := simulator.Strategies
	if c.strategy != "all" {
		st, err := simulator.ParseStrategy(c.strategy)
		if err != nil {
			return env.usagef(c, "%v", err)
		}
		strategies = []simulator.Strategy{st}
	}
	mode, err := simulator.ParseRepetitionMode(c.mode)
	if err != nil {
		return env.usagef(c, "%v", err)
	}
	if c.repetitions <= 0 {
		return env.usagef(c, "-repetitions must be positive")
	}

	series, err := c.series(ctx)
	if err != nil {
		return env.failf("could not load series: %v", err)
	}
	env.Log.Info().Int("points", series.Len()).Str("index", series.Kind().String()).Msg("series loaded")

	if c.stats {
		st, err := finance.Describe(series)
		if err != nil {
			env.Log.Warn().Err(err).Msg("no statistics")
		} else {
			fmt.Fprintf(env.Stdout, "series %s..%s: %d points, total %.2f%%, annual %.2f%%, volatility %.2f%%, max drawdown %.2f%%\n",
				st.First, st.Last, st.NumPoints, st.TotalReturn, st.AnnualReturn, st.Volatility, st.MaxDrawdown)
		}
	}

	opts := []simulator.Option{
		simulator.WithRepetitionMode(mode),
		simulator.WithClock(env.Now),
	}
	if c.seed != 0 {
		opts = append(opts, simulator.WithRand(rand.New(rand.NewPCG(c.seed, c.seed))))
	}
	var plotter *finance.ChartPlotter
	if c.plot {
		dir := c.plotDir
		if dir == "" {
			dir = filepath.Join(env.Config.OutputDir, "plots")
		}
		plotter = finance.NewChartPlotter(dir, env.Log)
		opts = append(opts, simulator.WithPlotter(plotter))
	}
	sim, err := simulator.New(series, c.purchases, opts...)
	if err != nil {
		return env.failf("%v", err)
	}

	for _, st := range strategies {
		est, err := sim.Run(st, c.plot, c.repetitions)
		if err != nil {
			return env.failf("%s: %v", st, err)
		}
		fmt.Fprintf(env.Stdout, "%s\t%s\n", st, strconv.FormatFloat(est, 'f', 6, 64))
	}
	if plotter != nil {
		fmt.Fprintf(env.Stderr, "Wrote %d charts to %s\n", len(plotter.Files()), plotter.Dir)
	}
	return subcommands.ExitSuccess
}

func (c *simulateCmd) series(ctx context.Context) (simulator.Series, error) {
	if c.input != "" {
		return export.ReadSeries(c.input)
	}
	return c.env.fetcher().SP500(ctx, finance.Source(c.source), true)
}
