package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/google/subcommands"

	"superinvestorResearch/internal/export"
	"superinvestorResearch/internal/finance"
	"superinvestorResearch/internal/wikipedia"
)

// sp500CompaniesCmd implements the "sp500-companies" command.
type sp500CompaniesCmd struct {
	env    *Env
	dir    string
	dbPath string
}

func (*sp500CompaniesCmd) Name() string     { return "sp500-companies" }
func (*sp500CompaniesCmd) Synopsis() string { return "downloads the S&P 500 company tables from Wikipedia" }
func (*sp500CompaniesCmd) Usage() string {
	return `sp500-companies [-o DIR] [-db PATH]:

Downloads every table of the Wikipedia list of S&P 500 companies, the
current constituents first, into DIR/sp500_table_<i>.csv.
`
}

func (c *sp500CompaniesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "o", "", "output directory (default $OUTPUT_DIR)")
	f.StringVar(&c.dbPath, "db", "", "also store the tables in this sqlite database (default $DB_PATH)")
}

func (c *sp500CompaniesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	tables, err := env.wikipedia().SP500Companies(ctx)
	if err != nil {
		return env.failf("could not download S&P 500 tables: %v", err)
	}
	if companies, err := wikipedia.Constituents(tables); err != nil {
		env.Log.Warn().Err(err).Msg("first table is not the constituents list")
	} else {
		env.Log.Info().Int("companies", len(companies)).Msg("constituents")
	}

	dir := c.dir
	if dir == "" {
		dir = env.Config.OutputDir
	}
	store, closeStore, err := env.openStore(c.dbPath)
	if err != nil {
		return env.failf("could not open database: %v", err)
	}
	defer closeStore()
	var run string
	if store != nil {
		if run, err = store.NewRun("wikipedia", env.Now()); err != nil {
			return env.failf("could not register run: %v", err)
		}
	}

	for i, t := range tables {
		name := fmt.Sprintf("sp500_table_%d", i)
		if err := export.WriteTable(filepath.Join(dir, name+".csv"), t); err != nil {
			return env.failf("%v", err)
		}
		if store != nil {
			if err := store.SaveTable(run, name, t); err != nil {
				return env.failf("could not store %s: %v", name, err)
			}
		}
	}
	fmt.Fprintf(env.Stderr, "Wrote %d tables to %s\n", len(tables), dir)
	return subcommands.ExitSuccess
}

// sp500SeriesCmd implements the "sp500-series" command.
type sp500SeriesCmd struct {
	env    *Env
	output string
	source string
	dropNA bool
}

func (*sp500SeriesCmd) Name() string     { return "sp500-series" }
func (*sp500SeriesCmd) Synopsis() string { return "downloads the daily S&P 500 index since 2000" }
func (*sp500SeriesCmd) Usage() string {
	return `sp500-series [-o FILE] [-source fred|yahoo] [-dropna]:

Downloads the daily S&P 500 closing values since 2000-01-01 into an
index,value CSV file usable as simulate -input.
`
}

func (c *sp500SeriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output CSV file (default $OUTPUT_DIR/sp500.csv)")
	f.StringVar(&c.source, "source", string(finance.SourceFRED), "data source: fred or yahoo")
	f.BoolVar(&c.dropNA, "dropna", true, "skip dates without a closing value")
}

func (c *sp500SeriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	s, err := env.fetcher().SP500(ctx, finance.Source(c.source), c.dropNA)
	if err != nil {
		return env.failf("could not download S&P 500: %v", err)
	}
	out := env.outPath(c.output, "sp500.csv")
	if err := export.WriteSeries(out, s); err != nil {
		return env.failf("%v", err)
	}
	fmt.Fprintf(env.Stderr, "Wrote %d observations to %s\n", s.Len(), out)
	return subcommands.ExitSuccess
}
