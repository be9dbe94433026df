package finance

import (
	"time"
)

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields).
// Closes are pointers because the API reports holidays and gaps as null.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Timezone string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Observation is one dated value of an index. Missing marks a date the source
// lists without a value (FRED writes those as ".").
type Observation struct {
	Date    time.Time
	Value   float64
	Missing bool
}

// Source names where the index series is downloaded from.
type Source string

const (
	SourceFRED  Source = "fred"
	SourceYahoo Source = "yahoo"
)

const (
	fredSP500ID   = "SP500"
	yahooSP500    = "^GSPC"
	fredGraphURL  = "https://fred.stlouisfed.org/graph/fredgraph.csv"
	yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
)

// SP500Start is the first date requested for the S&P 500 history.
var SP500Start = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
