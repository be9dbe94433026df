package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"superinvestorResearch/internal/export"
)

// dataromaCmd implements the "dataroma" command.
type dataromaCmd struct {
	env    *Env
	output string
	dbPath string
}

func (*dataromaCmd) Name() string     { return "dataroma" }
func (*dataromaCmd) Synopsis() string { return "scrapes every superinvestor portfolio from dataroma.com" }
func (*dataromaCmd) Usage() string {
	return `dataroma [-o FILE] [-db PATH]:

Scrapes the superinvestor list of dataroma.com and every listed portfolio
into one CSV file with the columns investor, stock, portfolio_pct, shares
and value.
`
}

func (c *dataromaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output CSV file (default $OUTPUT_DIR/dataroma.csv)")
	f.StringVar(&c.dbPath, "db", "", "also store the holdings in this sqlite database (default $DB_PATH)")
}

func (c *dataromaCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	holdings, err := env.dataroma().AllPortfolios(ctx)
	if err != nil {
		return env.failf("could not scrape dataroma: %v", err)
	}
	out := env.outPath(c.output, "dataroma.csv")
	if err := export.WriteHoldings(out, holdings); err != nil {
		return env.failf("%v", err)
	}

	store, closeStore, err := env.openStore(c.dbPath)
	if err != nil {
		return env.failf("could not open database: %v", err)
	}
	defer closeStore()
	if store != nil {
		run, err := store.NewRun("dataroma", env.Now())
		if err != nil {
			return env.failf("could not register run: %v", err)
		}
		if err := store.SaveHoldings(run, holdings); err != nil {
			return env.failf("could not store holdings: %v", err)
		}
		env.Log.Info().Str("run", run).Msg("holdings stored")
	}

	fmt.Fprintf(env.Stderr, "Wrote %d holdings to %s\n", len(holdings), out)
	return subcommands.ExitSuccess
}
