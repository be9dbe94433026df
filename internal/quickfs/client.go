// Package quickfs is a rate limited client of the QuickFS financial data API
// (https://quickfs.net).
//
// Every all-data call costs the API key a large share of its daily datapoint
// quota, so the client keeps the last known quota visible through Quota.
package quickfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://public-api.quickfs.net"

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger

	mu    sync.Mutex
	quota Quota
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(u, "/") }
}

// WithRate allows perSecond requests per second. Zero or less disables the
// limit.
func WithRate(perSecond float64) Option {
	return func(cl *Client) {
		if perSecond <= 0 {
			cl.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    http.DefaultClient,
		limiter: rate.NewLimiter(2, 1),
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With().Str("component", "quickfs").Logger()
	return c, nil
}

// dataURL builds the single metric endpoint when metric is set, the all-data
// endpoint otherwise.
func (c *Client) dataURL(symbol, metric string) string {
	path := "/v1/data/all-data/" + url.PathEscape(symbol)
	if metric != "" {
		path = "/v1/data/" + url.PathEscape(symbol) + "/" + url.PathEscape(metric)
	}
	return c.baseURL + path + "?" + url.Values{"api_key": {c.apiKey}}.Encode()
}

// Financials returns the statements of symbol, one row per period and one
// column per metric, plus a symbol column. The quota is refreshed afterwards.
func (c *Client) Financials(ctx context.Context, symbol string, period Period) (Frame, error) {
	if period != Quarterly && period != Annual {
		return Frame{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	doc, err := c.getJSON(ctx, c.dataURL(symbol, ""))
	if err != nil {
		return Frame{}, err
	}
	sym, err := lookup[string](doc, "$.data.metadata.symbol")
	if err != nil {
		return Frame{}, err
	}
	fin, err := lookup[map[string]any](doc, "$.data.financials."+string(period))
	if err != nil {
		return Frame{}, err
	}
	cols := make(map[string][]any, len(fin))
	for k, v := range fin {
		cols[k] = asArray(v)
	}
	f := frameFromColumns(sortedKeys(fin), cols).withColumn("symbol", sym)
	c.log.Info().Str("symbol", sym).Str("period", string(period)).Int("rows", len(f.Rows)).Msg("financials")

	if _, err := c.Usage(ctx); err != nil {
		c.log.Warn().Err(err).Msg("quota refresh failed")
	}
	return f, nil
}

// Metrics calls the single metric endpoint once per metric. That endpoint
// carries no dates, so rows are only positional.
func (c *Client) Metrics(ctx context.Context, symbol string, metrics []string) (Frame, error) {
	if len(metrics) == 0 {
		return Frame{}, fmt.Errorf("quickfs: no metric requested")
	}
	cols := make(map[string][]any, len(metrics))
	for _, m := range metrics {
		doc, err := c.getJSON(ctx, c.dataURL(symbol, m))
		if err != nil {
			return Frame{}, err
		}
		data, err := lookup[any](doc, "$.data")
		if err != nil {
			return Frame{}, err
		}
		cols[m] = asArray(data)
	}
	ticker, _, _ := strings.Cut(symbol, ":")
	f := frameFromColumns(metrics, cols).withColumn("symbol", ticker)
	c.log.Info().Str("symbol", symbol).Strs("metrics", metrics).Int("rows", len(f.Rows)).Msg("metrics")
	return f, nil
}

// Metadata returns the company metadata as a one row frame. It goes through
// the all-data endpoint and costs as much quota as Financials.
func (c *Client) Metadata(ctx context.Context, symbol string) (Frame, error) {
	doc, err := c.getJSON(ctx, c.dataURL(symbol, ""))
	if err != nil {
		return Frame{}, err
	}
	meta, err := lookup[map[string]any](doc, "$.data.metadata")
	if err != nil {
		return Frame{}, err
	}
	keys := sortedKeys(meta)
	cols := make(map[string][]any, len(meta))
	for _, k := range keys {
		cols[k] = []any{meta[k]}
	}
	return frameFromColumns(keys, cols), nil
}

// Usage reads the datapoint quota of the API key.
func (c *Client) Usage(ctx context.Context) (Quota, error) {
	doc, err := c.getJSON(ctx, c.baseURL+"/v1/usage?"+url.Values{"api_key": {c.apiKey}}.Encode())
	if err != nil {
		return Quota{}, err
	}
	q, err := lookup[map[string]any](doc, "$.usage.quota")
	if err != nil {
		return Quota{}, err
	}
	used, err := asInt(q["used"])
	if err != nil {
		return Quota{}, fmt.Errorf("quickfs: quota used: %w", err)
	}
	remaining, err := asInt(q["remaining"])
	if err != nil {
		return Quota{}, fmt.Errorf("quickfs: quota remaining: %w", err)
	}
	quota := Quota{Used: used, Remaining: remaining}
	c.mu.Lock()
	c.quota = quota
	c.mu.Unlock()
	c.log.Info().Int("used", used).Int("remaining", remaining).Msg("quota")
	return quota, nil
}

// Quota returns the last quota read by Usage.
func (c *Client) Quota() Quota {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quota
}

func (c *Client) getJSON(ctx context.Context, addr string) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		// the url embeds the api key
		if ue, ok := err.(*url.Error); ok {
			return nil, fmt.Errorf("quickfs: %s: %w", ue.Op, ue.Err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v: %s", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status, preview(buf.Bytes()))
	}
	var doc any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		return nil, fmt.Errorf("quickfs: decode %s: %w", resp.Request.URL.Path, err)
	}
	return doc, nil
}

// lookup evaluates a jsonpath expression and asserts the result type.
func lookup[T any](doc any, path string) (T, error) {
	var zero T
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return zero, fmt.Errorf("quickfs: %s: %w", path, err)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("quickfs: %s: unexpected %T", path, v)
	}
	return t, nil
}

func preview(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
