package finance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchFRED downloads a FRED series as CSV from start until the latest
// observation.
func (f *Fetcher) FetchFRED(ctx context.Context, seriesID string, start time.Time) ([]Observation, error) {
	q := url.Values{}
	q.Set("id", seriesID)
	q.Set("cosd", start.Format(time.DateOnly))
	addr := f.fredURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cannot http GET %v%v: %v: %s", req.URL.Host, req.URL.Path, resp.Status, preview(body))
	}

	obs, err := parseFREDCSV(resp.Body, seriesID)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}
	missing := 0
	for _, o := range obs {
		if o.Missing {
			missing++
		}
	}
	f.log.Info().Str("series", seriesID).Int("observations", len(obs)).Int("missing", missing).Msg("fetched fred series")
	return obs, nil
}

// parseFREDCSV reads the two-column fredgraph export. The date column is
// called DATE or observation_date depending on the export version; missing
// values are "." or empty.
func parseFREDCSV(r io.Reader, seriesID string) ([]Observation, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	col := 1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), seriesID) {
			col = i
		}
	}

	var out []Observation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", rec[0], err)
		}
		raw := strings.TrimSpace(rec[col])
		if raw == "." || raw == "" {
			out = append(out, Observation{Date: d, Missing: true})
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q on %s: %w", raw, rec[0], err)
		}
		out = append(out, Observation{Date: d, Value: v})
	}
	return out, nil
}
