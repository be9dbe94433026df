package quickfs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allDataJSON = `{"data":{
 "metadata":{"symbol":"AAPL","name":"Apple Inc.","currency":"USD"},
 "financials":{
  "quarterly":{"period_end_date":["2023-12","2024-03"],"revenue":[119575000000,90753000000],"eps_diluted":[2.18,1.53]},
  "annual":{"period_end_date":["2023-09"],"revenue":[383285000000]}
 }}}`

type fakeAPI struct {
	t        *testing.T
	requests []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r.URL.Path)
	assert.Equal(f.t, "secret", r.URL.Query().Get("api_key"))
	switch r.URL.Path {
	case "/v1/data/all-data/AAPL:US":
		fmt.Fprint(w, allDataJSON)
	case "/v1/data/AAPL:US/revenue":
		fmt.Fprint(w, `{"data":[1,2,3]}`)
	case "/v1/data/AAPL:US/name":
		fmt.Fprint(w, `{"data":"Apple Inc."}`)
	case "/v1/usage":
		fmt.Fprint(w, `{"usage":{"quota":{"used":120,"remaining":24880,"resets":"2024-01-02T00:00:00Z"}}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors":{"code":"NotFound"}}`)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := NewClient("secret", WithBaseURL(srv.URL), WithRate(0))
	require.NoError(t, err)
	return c, api
}

func TestNewClientNeedsKey(t *testing.T) {
	_, err := NewClient(" ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestDataURL(t *testing.T) {
	c, err := NewClient("k")
	require.NoError(t, err)
	assert.Equal(t, "https://public-api.quickfs.net/v1/data/all-data/AAPL:US?api_key=k", c.dataURL("AAPL:US", ""))
	assert.Equal(t, "https://public-api.quickfs.net/v1/data/AAPL:US/roa?api_key=k", c.dataURL("AAPL:US", "roa"))
}

func TestFinancialsRefreshesQuota(t *testing.T) {
	c, api := newTestClient(t)
	assert.Equal(t, Quota{}, c.Quota())

	f, err := c.Financials(context.Background(), "AAPL:US", Quarterly)
	require.NoError(t, err)
	assert.Equal(t, []string{"eps_diluted", "period_end_date", "revenue", "symbol"}, f.Columns)
	assert.Equal(t, [][]string{
		{"2.18", "2023-12", "119575000000", "AAPL"},
		{"1.53", "2024-03", "90753000000", "AAPL"},
	}, f.Rows)

	assert.Equal(t, []string{"/v1/data/all-data/AAPL:US", "/v1/usage"}, api.requests)
	assert.Equal(t, Quota{Used: 120, Remaining: 24880}, c.Quota())
}

func TestFinancialsAnnual(t *testing.T) {
	c, _ := newTestClient(t)
	f, err := c.Financials(context.Background(), "AAPL:US", Annual)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2023-09", "383285000000", "AAPL"}}, f.Rows)

	_, err = c.Financials(context.Background(), "AAPL:US", "monthly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestMetrics(t *testing.T) {
	c, api := newTestClient(t)
	f, err := c.Metrics(context.Background(), "AAPL:US", []string{"revenue", "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"revenue", "name", "symbol"}, f.Columns)
	assert.Equal(t, [][]string{
		{"1", "Apple Inc.", "AAPL"},
		{"2", "", "AAPL"},
		{"3", "", "AAPL"},
	}, f.Rows)
	assert.NotContains(t, api.requests, "/v1/usage")
}

func TestMetadata(t *testing.T) {
	c, _ := newTestClient(t)
	f, err := c.Metadata(context.Background(), "AAPL:US")
	require.NoError(t, err)
	assert.Equal(t, []string{"currency", "name", "symbol"}, f.Columns)
	assert.Equal(t, [][]string{{"USD", "Apple Inc.", "AAPL"}}, f.Rows)
}

func TestErrorsSurface(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Metrics(context.Background(), "MSFT:US", []string{"revenue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NotContains(t, err.Error(), "secret")
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, p)
	p, err = ParsePeriod("annual")
	require.NoError(t, err)
	assert.Equal(t, Annual, p)
	_, err = ParsePeriod("weekly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
