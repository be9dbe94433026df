package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"superinvestorResearch/internal/simulator"
)

// Fetcher downloads index history. Every request is sent once; failures are
// returned to the caller as is.
type Fetcher struct {
	client    *http.Client
	log       zerolog.Logger
	fredURL   string
	yahooURL  string
	userAgent string
	now       func() time.Time
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(c *http.Client) FetcherOption { return func(f *Fetcher) { f.client = c } }

func WithLogger(l zerolog.Logger) FetcherOption { return func(f *Fetcher) { f.log = l } }

// WithUserAgent overrides the browser user agent. Empty keeps the default.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithBaseURLs points the fetcher at other FRED and Yahoo endpoints, mostly
// for tests. Empty values keep the defaults.
func WithBaseURLs(fred, yahoo string) FetcherOption {
	return func(f *Fetcher) {
		if fred != "" {
			f.fredURL = fred
		}
		if yahoo != "" {
			f.yahooURL = yahoo
		}
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    http.DefaultClient,
		log:       zerolog.Nop(),
		fredURL:   fredGraphURL,
		yahooURL:  yahooChartURL,
		userAgent: userAgent,
		now:       time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	f.log = f.log.With().Str("component", "finance").Logger()
	return f
}

// SP500 downloads the S&P 500 closing values since SP500Start as a
// chronological series. With dropNA the dates without a value are skipped,
// otherwise they make the series invalid.
func (f *Fetcher) SP500(ctx context.Context, source Source, dropNA bool) (simulator.Series, error) {
	var (
		obs []Observation
		err error
	)
	switch source {
	case SourceFRED, "":
		obs, err = f.FetchFRED(ctx, fredSP500ID, SP500Start)
	case SourceYahoo:
		obs, err = f.FetchDaily(ctx, yahooSP500, SP500Start)
	default:
		return simulator.Series{}, fmt.Errorf("unknown source %q (want fred or yahoo)", source)
	}
	if err != nil {
		return simulator.Series{}, err
	}
	return ToSeries(obs, dropNA)
}

// FetchDaily fetches daily closes of a Yahoo symbol from start until today.
// Null closes are kept as missing observations.
func (f *Fetcher) FetchDaily(ctx context.Context, symbol string, start time.Time) ([]Observation, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(f.now().Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	addr := fmt.Sprintf("%s/%s?%s", f.yahooURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", strings.ToUpper(symbol)))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", err)
	}
	f.log.Debug().Str("symbol", symbol).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("yahoo chart")
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	if yc.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("no data")
	}
	ts := yc.Chart.Result[0].Timestamp
	cl := yc.Chart.Result[0].Indicators.Quote[0].Close
	obs := filterNonNegative(toObservations(ts, cl))
	if len(obs) == 0 {
		return nil, errors.New("empty bars")
	}
	f.log.Info().Str("symbol", symbol).Int("observations", len(obs)).Msg("fetched daily closes")
	return obs, nil
}

// toObservations pairs timestamps with closes, dating each bar in New York.
func toObservations(ts []int64, cl []*float64) []Observation {
	n := min(len(ts), len(cl))
	et := getEasternTime()
	out := make([]Observation, 0, n)
	for i := 0; i < n; i++ {
		t := time.Unix(ts[i], 0).In(et)
		o := Observation{Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
		if cl[i] == nil {
			o.Missing = true
		} else {
			o.Value = *cl[i]
		}
		out = append(out, o)
	}
	return out
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
