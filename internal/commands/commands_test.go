package commands

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superinvestorResearch/internal/config"
	"superinvestorResearch/internal/storage"
)

type harness struct {
	env    *Env
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	h.env = &Env{
		Config: config.Config{
			OutputDir:   t.TempDir(),
			HTTPTimeout: 5 * time.Second,
		},
		Log:    zerolog.Nop(),
		HTTP:   http.DefaultClient,
		Now:    func() time.Time { return time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC) },
		Stdout: &h.stdout,
		Stderr: &h.stderr,
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("research", flag.ContinueOnError)
	cdr := subcommands.NewCommander(fs, "research")
	cdr.Output = &h.stdout
	cdr.Error = &h.stderr
	for _, c := range Commands(h.env) {
		cdr.Register(c, "")
	}
	require.NoError(t, fs.Parse(args))
	return cdr.Execute(context.Background())
}

func writeSeries(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fallingSeries = "index,value\n0,100\n1,90\n2,80\n3,70\n4,60\n5,50\n"

func TestSimulateOptimalFromFile(t *testing.T) {
	h := newHarness(t)
	input := writeSeries(t, fallingSeries)
	status := h.run(t, "simulate", "-n", "2", "-strategy", "optimal", "-input", input)
	require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())
	assert.Equal(t, "optimal\t-0.500000\n", h.stdout.String())
}

func TestSimulateAllStrategiesSeeded(t *testing.T) {
	input := writeSeries(t, "index,value\n2024-01-02,100\n2024-01-03,101\n2024-01-04,99\n2024-01-05,102\n2024-01-08,103\n2024-01-09,104\n")
	var outputs []string
	for i := 0; i < 2; i++ {
		h := newHarness(t)
		status := h.run(t, "simulate", "-n", "3", "-seed", "42", "-input", input, "-stats")
		require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())
		outputs = append(outputs, h.stdout.String())
	}
	assert.Equal(t, outputs[0], outputs[1])

	lines := strings.Split(strings.TrimSpace(outputs[0]), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "series 2024-01-02..2024-01-09: 6 points"), lines[0])
	for i, name := range []string{"random", "equal_space", "optimal", "worst"} {
		assert.True(t, strings.HasPrefix(lines[i+1], name+"\t"), lines[i+1])
	}
}

func TestSimulatePlots(t *testing.T) {
	h := newHarness(t)
	input := writeSeries(t, fallingSeries)
	dir := filepath.Join(t.TempDir(), "charts")
	status := h.run(t, "simulate", "-n", "2", "-strategy", "random", "-repetitions", "2", "-plot", "-plot-dir", dir, "-input", input)
	require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())
	assert.FileExists(t, filepath.Join(dir, "random-1.png"))
	assert.FileExists(t, filepath.Join(dir, "random-2.png"))
}

func TestSimulateUsageErrors(t *testing.T) {
	input := writeSeries(t, fallingSeries)
	tests := []struct {
		name string
		args []string
	}{
		{"missing n", []string{"simulate", "-input", input}},
		{"bad strategy", []string{"simulate", "-n", "2", "-strategy", "dip", "-input", input}},
		{"bad mode", []string{"simulate", "-n", "2", "-mode", "median", "-input", input}},
		{"bad repetitions", []string{"simulate", "-n", "2", "-repetitions", "0", "-input", input}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			assert.Equal(t, subcommands.ExitUsageError, h.run(t, tt.args...))
			assert.Contains(t, h.stderr.String(), "Error:")
		})
	}
}

func TestSimulateEmptySegmentFails(t *testing.T) {
	h := newHarness(t)
	input := writeSeries(t, "index,value\n0,1\n1,2\n")
	assert.Equal(t, subcommands.ExitFailure, h.run(t, "simulate", "-n", "3", "-input", input))
	assert.Empty(t, h.stdout.String())
}

const homeHTML = `<div id="port_body"><ul>
<li><a href="/m/holdings.php?m=BRK">Warren Buffett - Berkshire Hathaway<span>Updated 14 Nov 2024</span></a></li>
</ul></div>`

const holdingsHTML = `<table id="grid">
<thead><tr><td>Stock</td><td>% of portfolio</td><td>Shares</td><td>Value</td></tr></thead>
<tbody><tr><td>AAPL - Apple Inc.</td><td>26.24</td><td>300,000,000</td><td>$69,900,000,000</td></tr></tbody>
</table>`

func TestDataromaToCSVAndSqlite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/m/home.php":
			fmt.Fprint(w, homeHTML)
		case "/m/holdings.php":
			fmt.Fprint(w, holdingsHTML)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := newHarness(t)
	h.env.Endpoints.Dataroma = srv.URL
	dbPath := filepath.Join(t.TempDir(), "research.db")
	status := h.run(t, "dataroma", "-db", dbPath)
	require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())

	b, err := os.ReadFile(filepath.Join(h.env.Config.OutputDir, "dataroma.csv"))
	require.NoError(t, err)
	assert.Equal(t, "investor,stock,portfolio_pct,shares,value\n"+
		"Warren Buffett - Berkshire Hathaway,AAPL - Apple Inc.,26.24,300000000,69900000000\n", string(b))

	db, err := storage.OpenSQLite("file:" + dbPath)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Query(`SELECT id FROM runs WHERE source='dataroma'`)
	require.NoError(t, err)
	var runs []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		runs = append(runs, id)
	}
	rows.Close()
	require.Len(t, runs, 1)
	holdings, err := storage.NewStore(db).Holdings(runs[0])
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, int64(300000000), holdings[0].Shares)
}

func TestDataromaFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := newHarness(t)
	h.env.Endpoints.Dataroma = srv.URL
	assert.Equal(t, subcommands.ExitFailure, h.run(t, "dataroma"))
	assert.Contains(t, h.stderr.String(), "404")
	assert.NoFileExists(t, filepath.Join(h.env.Config.OutputDir, "dataroma.csv"))
}

func TestSP500Companies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table><tr><th>Symbol</th><th>Security</th></tr><tr><td>MMM</td><td>3M</td></tr></table>
<table><tr><th>Date</th></tr><tr><td>June 24, 2024</td></tr></table>`)
	}))
	defer srv.Close()

	h := newHarness(t)
	h.env.Endpoints.Wikipedia = srv.URL
	dir := t.TempDir()
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "sp500-companies", "-o", dir), h.stderr.String())

	b, err := os.ReadFile(filepath.Join(dir, "sp500_table_0.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Symbol,Security\nMMM,3M\n", string(b))
	assert.FileExists(t, filepath.Join(dir, "sp500_table_1.csv"))
}

func TestSP500SeriesThenSimulate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "observation_date,SP500\n2024-01-02,4742.83\n2024-01-03,.\n2024-01-04,4688.68\n2024-01-05,4697.24\n")
	}))
	defer srv.Close()

	h := newHarness(t)
	h.env.Endpoints.FRED = srv.URL
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "sp500-series"), h.stderr.String())

	out := filepath.Join(h.env.Config.OutputDir, "sp500.csv")
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "index,value\n2024-01-02,4742.83\n2024-01-04,4688.68\n2024-01-05,4697.24\n", string(b))

	h2 := newHarness(t)
	require.Equal(t, subcommands.ExitSuccess, h2.run(t, "simulate", "-n", "1", "-strategy", "worst", "-input", out), h2.stderr.String())
	assert.True(t, strings.HasPrefix(h2.stdout.String(), "worst\t"))
}

func TestQuickFS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "flag-key", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"data":[10,20]}`)
	}))
	defer srv.Close()

	h := newHarness(t)
	h.env.Endpoints.QuickFS = srv.URL
	h.env.Config.QuickFSAPIKey = "env-key"
	status := h.run(t, "quickfs", "-symbol", "AAPL:US", "-metrics", "revenue, ", "-quickfs-api-key", "flag-key")
	require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())

	b, err := os.ReadFile(filepath.Join(h.env.Config.OutputDir, "quickfs_AAPL_US.csv"))
	require.NoError(t, err)
	assert.Equal(t, "revenue,symbol\n10,AAPL\n20,AAPL\n", string(b))
}

func TestQuickFSUsage(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "quickfs"))

	h = newHarness(t)
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "quickfs", "-symbol", "AAPL:US", "-period", "weekly"))

	h = newHarness(t)
	assert.Equal(t, subcommands.ExitFailure, h.run(t, "quickfs", "-symbol", "AAPL:US"))
	assert.Contains(t, h.stderr.String(), "QUICKFS_API_KEY")
}
