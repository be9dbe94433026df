package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"superinvestorResearch/internal/export"
	"superinvestorResearch/internal/quickfs"
)

// quickfsCmd implements the "quickfs" command.
type quickfsCmd struct {
	env        *Env
	symbol     string
	metrics    string
	period     string
	metadata   bool
	output     string
	configFile string
	apiKey     string
}

func (*quickfsCmd) Name() string     { return "quickfs" }
func (*quickfsCmd) Synopsis() string { return "downloads company financials from QuickFS" }
func (*quickfsCmd) Usage() string {
	return `quickfs -symbol SYM [-metrics a,b] [-period quarterly|annual] [-metadata] [-o FILE]:

Downloads the financial statements of one company (e.g. AAPL:US). With
-metrics only those metrics are requested, with -metadata only the company
metadata. The API key is taken from -quickfs-api-key, then from the -config
file, then from QUICKFS_API_KEY.
`
}

func (c *quickfsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "QuickFS symbol, e.g. AAPL:US")
	f.StringVar(&c.metrics, "metrics", "", "comma separated metrics; all financials when empty")
	f.StringVar(&c.period, "period", string(quickfs.Quarterly), "quarterly or annual")
	f.BoolVar(&c.metadata, "metadata", false, "download the company metadata only")
	f.StringVar(&c.output, "o", "", "output CSV file (default $OUTPUT_DIR/quickfs_<symbol>.csv)")
	f.StringVar(&c.configFile, "config", "", "dotenv file holding QUICKFS_API_KEY")
	f.StringVar(&c.apiKey, "quickfs-api-key", "", "QuickFS API key")
}

func (c *quickfsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	if c.symbol == "" {
		return env.usagef(c, "-symbol is required")
	}
	period, err := quickfs.ParsePeriod(c.period)
	if err != nil {
		return env.usagef(c, "%v", err)
	}
	key, err := env.Config.QuickFSKey(c.apiKey, c.configFile)
	if err != nil {
		return env.failf("%v", err)
	}
	client, err := env.quickfs(key)
	if err != nil {
		return env.failf("%v", err)
	}

	var frame quickfs.Frame
	switch {
	case c.metadata:
		frame, err = client.Metadata(ctx, c.symbol)
	case c.metrics != "":
		frame, err = client.Metrics(ctx, c.symbol, splitList(c.metrics))
	default:
		frame, err = client.Financials(ctx, c.symbol, period)
	}
	if err != nil {
		return env.failf("could not query QuickFS for %s: %v", c.symbol, err)
	}

	name := "quickfs_" + strings.NewReplacer(":", "_", "/", "_").Replace(c.symbol) + ".csv"
	out := env.outPath(c.output, name)
	if err := export.WriteFrame(out, frame); err != nil {
		return env.failf("%v", err)
	}
	fmt.Fprintf(env.Stderr, "Wrote %d rows to %s\n", len(frame.Rows), out)
	if q := client.Quota(); q != (quickfs.Quota{}) {
		fmt.Fprintf(env.Stderr, "QuickFS quota: %d used, %d remaining\n", q.Used, q.Remaining)
	}
	return subcommands.ExitSuccess
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
