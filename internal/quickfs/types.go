package quickfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrMissingAPIKey = errors.New("quickfs: missing API key")
	ErrInvalidPeriod = errors.New("quickfs: period must be quarterly or annual")
)

// Period selects the financial statements granularity of the all-data endpoint.
type Period string

const (
	Quarterly Period = "quarterly"
	Annual    Period = "annual"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Quarterly, Annual:
		return p, nil
	case "":
		return Quarterly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Quota is the datapoint counter of the API key as last reported by the
// usage endpoint.
type Quota struct {
	Used      int
	Remaining int
}

// Frame is a column oriented result rendered as text cells, ready for export.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// frameFromColumns lays out named arrays side by side. Shorter columns are
// padded with empty cells.
func frameFromColumns(names []string, cols map[string][]any) Frame {
	f := Frame{Columns: append([]string(nil), names...)}
	n := 0
	for _, name := range names {
		n = max(n, len(cols[name]))
	}
	for i := 0; i < n; i++ {
		row := make([]string, len(names))
		for j, name := range names {
			if c := cols[name]; i < len(c) {
				row[j] = cell(c[i])
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// withColumn appends a constant column.
func (f Frame) withColumn(name, value string) Frame {
	f.Columns = append(f.Columns, name)
	for i := range f.Rows {
		f.Rows[i] = append(f.Rows[i], value)
	}
	return f
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// asArray accepts a json array, or wraps a scalar into a one element array.
func asArray(v any) []any {
	if a, ok := v.([]any); ok {
		return a
	}
	return []any{v}
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(x)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
