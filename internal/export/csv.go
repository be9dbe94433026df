// Package export writes acquired data and index series as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"superinvestorResearch/internal/dataroma"
	"superinvestorResearch/internal/htmltable"
	"superinvestorResearch/internal/quickfs"
	"superinvestorResearch/internal/simulator"
)

var holdingsHeader = []string{"investor", "stock", "portfolio_pct", "shares", "value"}

func WriteHoldings(path string, holdings []dataroma.Holding) error {
	rows := make([][]string, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, []string{
			h.Investor, h.Stock, h.PortfolioPct.String(),
			strconv.FormatInt(h.Shares, 10), h.Value.String(),
		})
	}
	return writeFile(path, holdingsHeader, rows)
}

func WriteTable(path string, t htmltable.Table) error {
	return writeFile(path, t.Headers, t.Rows)
}

func WriteFrame(path string, f quickfs.Frame) error {
	return writeFile(path, f.Columns, f.Rows)
}

// WriteSeries writes the index,value pairs of s. Dates are written as
// YYYY-MM-DD, positions as integers, so ReadSeries restores the same kind.
func WriteSeries(path string, s simulator.Series) error {
	rows := make([][]string, s.Len())
	for i := range rows {
		rows[i] = []string{s.Label(i), formatF(s.Value(i))}
	}
	return writeFile(path, []string{"index", "value"}, rows)
}

// ReadSeries reads a two column index,value file with a header row.
func ReadSeries(path string) (simulator.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return simulator.Series{}, err
	}
	defer f.Close()
	return readSeries(f)
}

func readSeries(r io.Reader) (simulator.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	records, err := cr.ReadAll()
	if err != nil {
		return simulator.Series{}, err
	}
	if len(records) < 2 {
		return simulator.Series{}, fmt.Errorf("series file has no data row")
	}
	labels := make([]string, 0, len(records)-1)
	values := make([]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return simulator.Series{}, fmt.Errorf("line %d: %w", i+2, err)
		}
		labels = append(labels, rec[0])
		values = append(values, v)
	}
	return simulator.ParseIndex(labels, values)
}

func writeFile(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, header, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
