package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superinvestorResearch/internal/htmltable"
)

const pageHTML = `<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th><th>Headquarters Location</th><th>Date added</th><th>CIK</th><th>Founded</th></tr>
<tr><td><a href="#">MMM</a></td><td>3M</td><td>Industrials</td><td>Industrial Conglomerates</td><td>Saint Paul, Minnesota</td><td>1957-03-04</td><td>0000066740</td><td>1902</td></tr>
<tr><td>AOS</td><td>A. O. Smith</td><td>Industrials</td><td>Building Products</td><td>Milwaukee, Wisconsin</td><td>2017-07-26</td><td>0000091142</td><td>1916</td></tr>
</tbody></table>
<table class="wikitable" id="changes">
<tbody>
<tr><th rowspan="2">Date</th><th colspan="2">Added</th><th colspan="2">Removed</th><th rowspan="2">Reason</th></tr>
<tr><th>Ticker</th><th>Security</th><th>Ticker</th><th>Security</th></tr>
<tr><td>June 24, 2024</td><td>KKR</td><td>KKR</td><td>RHI</td><td>Robert Half</td><td>Market cap change.<sup class="reference">[4]</sup></td></tr>
</tbody></table>
</body></html>`

func TestSP500Companies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/List_of_S%26P_500_companies", r.URL.EscapedPath())
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, pageHTML)
	}))
	defer srv.Close()

	tables, err := New(WithBaseURL(srv.URL)).SP500Companies(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "Removed Ticker", tables[1].Headers[3])

	companies, err := Constituents(tables)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, Company{
		Symbol:       "MMM",
		Security:     "3M",
		Sector:       "Industrials",
		SubIndustry:  "Industrial Conglomerates",
		Headquarters: "Saint Paul, Minnesota",
		DateAdded:    "1957-03-04",
		CIK:          "0000066740",
		Founded:      "1902",
	}, companies[0])
}

func TestSP500CompaniesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).SP500Companies(context.Background())
	assert.ErrorContains(t, err, "403")
}

func TestConstituentsMissingColumn(t *testing.T) {
	_, err := Constituents([]htmltable.Table{{Headers: []string{"Symbol"}}})
	assert.Error(t, err)
	_, err = Constituents(nil)
	assert.Error(t, err)
}
