// Package dataroma scrapes the superinvestor portfolios listed on
// dataroma.com.
package dataroma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"superinvestorResearch/internal/htmltable"
)

const (
	defaultBaseURL   = "https://www.dataroma.com"
	homePath         = "/m/home.php"
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.12; rv:55.0) Gecko/20100101 Firefox/55.0"
)

// Investor is one superinvestor of the home page list.
type Investor struct {
	Name string
	URL  string
}

// Holding is one line of an investor portfolio.
type Holding struct {
	Investor     string
	Stock        string
	PortfolioPct decimal.Decimal
	Shares       int64
	Value        decimal.Decimal
}

// portfolioColumns are the portfolio table headers kept, in output order.
var portfolioColumns = []string{"Stock", "% of portfolio", "Shares", "Value"}

type Scraper struct {
	client    *http.Client
	baseURL   string
	userAgent string
	log       zerolog.Logger
}

type Option func(*Scraper)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithBaseURL replaces https://www.dataroma.com for both the home page and
// the portfolio links.
func WithBaseURL(u string) Option {
	return func(s *Scraper) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scraper) { s.log = l }
}

func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:    http.DefaultClient,
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "dataroma").Logger()
	return s
}

// Investors lists the superinvestors of the home page with their portfolio
// page URL.
func (s *Scraper) Investors(ctx context.Context) ([]Investor, error) {
	body, err := s.get(ctx, s.baseURL+homePath)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}
	list := doc.Find("#port_body")
	if list.Length() == 0 {
		return nil, errors.New("dataroma: superinvestor list #port_body not found")
	}
	var out []Investor
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		href, ok := li.Find("a").First().Attr("href")
		if !ok {
			return
		}
		name, _, _ := strings.Cut(li.Text(), "Update")
		out = append(out, Investor{
			Name: strings.TrimSpace(name),
			URL:  s.baseURL + href,
		})
	})
	s.log.Info().Int("investors", len(out)).Msg("superinvestor list")
	return out, nil
}

// Portfolio reads the holdings table of one investor.
func (s *Scraper) Portfolio(ctx context.Context, inv Investor) ([]Holding, error) {
	body, err := s.get(ctx, inv.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	tables, err := htmltable.Parse(body)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("dataroma: no table in portfolio of %s", inv.Name)
	}
	sub, err := tables[0].Select(portfolioColumns, []string{"stock", "portfolio_pct", "shares", "value"})
	if err != nil {
		return nil, fmt.Errorf("dataroma: portfolio of %s: %w", inv.Name, err)
	}
	holdings := make([]Holding, 0, len(sub.Rows))
	for _, r := range sub.Rows {
		h, err := parseHolding(inv.Name, r)
		if err != nil {
			return nil, fmt.Errorf("dataroma: portfolio of %s: %w", inv.Name, err)
		}
		holdings = append(holdings, h)
	}
	s.log.Debug().Str("investor", inv.Name).Int("holdings", len(holdings)).Msg("portfolio")
	return holdings, nil
}

// AllPortfolios concatenates the portfolios of every listed investor. The
// first failure aborts the run.
func (s *Scraper) AllPortfolios(ctx context.Context) ([]Holding, error) {
	investors, err := s.Investors(ctx)
	if err != nil {
		return nil, err
	}
	var all []Holding
	for _, inv := range investors {
		h, err := s.Portfolio(ctx, inv)
		if err != nil {
			return nil, err
		}
		all = append(all, h...)
	}
	s.log.Info().Int("investors", len(investors)).Int("holdings", len(all)).Msg("portfolios scraped")
	return all, nil
}

func parseHolding(investor string, r []string) (Holding, error) {
	pct, err := decimal.NewFromString(cleanNumber(r[1]))
	if err != nil {
		return Holding{}, fmt.Errorf("percent %q: %w", r[1], err)
	}
	shares, err := strconv.ParseInt(cleanNumber(r[2]), 10, 64)
	if err != nil {
		return Holding{}, fmt.Errorf("shares %q: %w", r[2], err)
	}
	value, err := decimal.NewFromString(cleanNumber(r[3]))
	if err != nil {
		return Holding{}, fmt.Errorf("value %q: %w", r[3], err)
	}
	return Holding{
		Investor:     investor,
		Stock:        r[0],
		PortfolioPct: pct,
		Shares:       shares,
		Value:        value,
	}, nil
}

// cleanNumber strips the dollar sign, thousands separators and percent sign.
func cleanNumber(s string) string {
	return strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(strings.TrimSpace(s))
}

func (s *Scraper) get(ctx context.Context, addr string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	return resp.Body, nil
}
