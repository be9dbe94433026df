// Package wikipedia reads the S&P 500 constituent tables from Wikipedia.
package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"superinvestorResearch/internal/htmltable"
)

const (
	defaultBaseURL   = "https://en.wikipedia.org"
	sp500Path        = "/wiki/List_of_S%26P_500_companies"
	defaultUserAgent = "superinvestorResearch/1.0 (https://github.com/superinvestorResearch)"
)

// Company is one row of the current constituents table.
type Company struct {
	Symbol       string
	Security     string
	Sector       string
	SubIndustry  string
	Headquarters string
	DateAdded    string
	CIK          string
	Founded      string
}

var constituentColumns = []string{
	"Symbol", "Security", "GICS Sector", "GICS Sub-Industry",
	"Headquarters Location", "Date added", "CIK", "Founded",
}

type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	log       zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(u, "/") }
}

func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:      http.DefaultClient,
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With().Str("component", "wikipedia").Logger()
	return c
}

// SP500Companies returns every table of the S&P 500 list page in page
// order. The first one holds the current constituents, the second the
// history of additions and removals.
func (c *Client) SP500Companies(ctx context.Context) ([]htmltable.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sp500Path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	tables, err := htmltable.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("wikipedia: no table on %s", sp500Path)
	}
	c.log.Info().Int("tables", len(tables)).Int("constituents", len(tables[0].Rows)).Msg("sp500 page")
	return tables, nil
}

// Constituents maps the first table of the page onto companies.
func Constituents(tables []htmltable.Table) ([]Company, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("wikipedia: no constituents table")
	}
	sub, err := tables[0].Select(constituentColumns, constituentColumns)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: constituents: %w", err)
	}
	out := make([]Company, 0, len(sub.Rows))
	for _, r := range sub.Rows {
		out = append(out, Company{
			Symbol:       r[0],
			Security:     r[1],
			Sector:       r[2],
			SubIndustry:  r[3],
			Headquarters: r[4],
			DateAdded:    r[5],
			CIK:          r[6],
			Founded:      r[7],
		})
	}
	return out, nil
}
