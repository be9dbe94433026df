// Package commands implements the research command line, one subcommand per
// data source plus the purchase strategy simulation.
package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"superinvestorResearch/internal/config"
	"superinvestorResearch/internal/dataroma"
	"superinvestorResearch/internal/finance"
	"superinvestorResearch/internal/quickfs"
	"superinvestorResearch/internal/storage"
	"superinvestorResearch/internal/wikipedia"
)

// Endpoints overrides the public base URLs. Empty fields keep the defaults.
type Endpoints struct {
	Dataroma  string
	Wikipedia string
	QuickFS   string
	FRED      string
	Yahoo     string
}

// Env is what every command shares: configuration, logger and transport.
type Env struct {
	Config    config.Config
	Log       zerolog.Logger
	HTTP      *http.Client
	Endpoints Endpoints
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
}

// NewEnv builds the default environment from cfg.
func NewEnv(cfg config.Config, log zerolog.Logger) *Env {
	return &Env{
		Config: cfg,
		Log:    log,
		HTTP:   &http.Client{Timeout: cfg.HTTPTimeout},
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Commands lists the subcommands bound to env.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&dataromaCmd{env: env},
		&sp500CompaniesCmd{env: env},
		&quickfsCmd{env: env},
		&sp500SeriesCmd{env: env},
		&simulateCmd{env: env},
	}
}

func (e *Env) failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

func (e *Env) usagef(f interface{ Usage() string }, format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Stderr, "Error: "+format+"\n\n%s", append(args, f.Usage())...)
	return subcommands.ExitUsageError
}

// outPath returns flagValue, or name under the configured output directory.
func (e *Env) outPath(flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(e.Config.OutputDir, name)
}

// openStore opens the sqlite sink at path, falling back to DB_PATH. A nil
// store means no sink is configured.
func (e *Env) openStore(path string) (*storage.Store, func(), error) {
	if path == "" {
		path = e.Config.DBPath
	}
	if path == "" {
		return nil, func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	db, err := storage.OpenSQLite("file:" + path + "?_fk=1")
	if err != nil {
		return nil, nil, err
	}
	if err := storage.InitSchema(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	e.Log.Debug().Str("db", path).Msg("sqlite sink opened")
	return storage.NewStore(db), func() { db.Close() }, nil
}

func (e *Env) dataroma() *dataroma.Scraper {
	opts := []dataroma.Option{
		dataroma.WithHTTPClient(e.HTTP),
		dataroma.WithUserAgent(e.Config.UserAgent),
		dataroma.WithLogger(e.Log),
	}
	if e.Endpoints.Dataroma != "" {
		opts = append(opts, dataroma.WithBaseURL(e.Endpoints.Dataroma))
	}
	return dataroma.New(opts...)
}

func (e *Env) wikipedia() *wikipedia.Client {
	opts := []wikipedia.Option{
		wikipedia.WithHTTPClient(e.HTTP),
		wikipedia.WithUserAgent(e.Config.UserAgent),
		wikipedia.WithLogger(e.Log),
	}
	if e.Endpoints.Wikipedia != "" {
		opts = append(opts, wikipedia.WithBaseURL(e.Endpoints.Wikipedia))
	}
	return wikipedia.New(opts...)
}

func (e *Env) quickfs(apiKey string) (*quickfs.Client, error) {
	opts := []quickfs.Option{
		quickfs.WithHTTPClient(e.HTTP),
		quickfs.WithRate(e.Config.QuickFSRatePerSec),
		quickfs.WithLogger(e.Log),
	}
	if e.Endpoints.QuickFS != "" {
		opts = append(opts, quickfs.WithBaseURL(e.Endpoints.QuickFS))
	}
	return quickfs.NewClient(apiKey, opts...)
}

func (e *Env) fetcher() *finance.Fetcher {
	return finance.NewFetcher(
		finance.WithHTTPClient(e.HTTP),
		finance.WithUserAgent(e.Config.UserAgent),
		finance.WithLogger(e.Log),
		finance.WithBaseURLs(e.Endpoints.FRED, e.Endpoints.Yahoo),
	)
}
