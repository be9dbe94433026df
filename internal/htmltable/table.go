// Package htmltable extracts HTML tables into rows of cell text.
package htmltable

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is one HTML table. Every row has len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

var (
	reSpace    = regexp.MustCompile(`\s+`)
	reFootnote = regexp.MustCompile(`\[(\d+|[a-z]|note \d+)\]`)
)

// Parse reads every <table> of the document in document order.
func Parse(r io.Reader) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return FromSelection(doc.Selection), nil
}

// FromSelection extracts the tables found under sel, sel included. Nested
// tables are extracted on their own and not merged into their parent.
func FromSelection(sel *goquery.Selection) []Table {
	var out []Table
	sel.Find("table").AddSelection(sel.Filter("table")).Each(func(_ int, t *goquery.Selection) {
		out = append(out, extract(t))
	})
	return out
}

func extract(t *goquery.Selection) Table {
	var (
		tbl        Table
		headerRows [][]string
		pending    = map[int]rowSpan{}
	)
	rows := t.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		// skip rows of nested tables
		return tr.Closest("table").IsSelection(t)
	})
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("th, td")
		allHeader := cells.Length() > 0 && cells.Length() == tr.ChildrenFiltered("th").Length()
		row := expandRow(cells, pending)
		if len(row) == 0 {
			return
		}
		if len(tbl.Rows) == 0 && (allHeader || tr.ParentsFiltered("thead").Length() > 0) {
			headerRows = append(headerRows, row)
			return
		}
		tbl.Rows = append(tbl.Rows, row)
	})
	tbl.Headers = mergeHeaders(headerRows)
	if tbl.Headers == nil && len(tbl.Rows) > 0 {
		tbl.Headers = make([]string, len(tbl.Rows[0]))
		for i := range tbl.Headers {
			tbl.Headers[i] = fmt.Sprint(i)
		}
	}
	for i, r := range tbl.Rows {
		tbl.Rows[i] = pad(r, len(tbl.Headers))
	}
	return tbl
}

// rowSpan is a cell still covering rows below the one it was declared in.
type rowSpan struct {
	text string
	left int
}

// expandRow lays the cells of one row on the column grid, repeating cells
// with colspan and filling columns taken by a rowspan from above.
func expandRow(cells *goquery.Selection, pending map[int]rowSpan) []string {
	var row []string
	fill := func() {
		for {
			p, ok := pending[len(row)]
			if !ok {
				return
			}
			row = append(row, p.text)
			if p.left--; p.left == 0 {
				delete(pending, len(row)-1)
			} else {
				pending[len(row)-1] = p
			}
		}
	}
	cells.Each(func(_ int, c *goquery.Selection) {
		fill()
		text := cellText(c)
		colspan, rowspan := spanAttr(c, "colspan"), spanAttr(c, "rowspan")
		for k := 0; k < colspan; k++ {
			if rowspan > 1 {
				pending[len(row)] = rowSpan{text: text, left: rowspan - 1}
			}
			row = append(row, text)
		}
	})
	fill()
	return row
}

func spanAttr(c *goquery.Selection, name string) int {
	v, ok := c.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// mergeHeaders flattens stacked header rows into one label per column,
// joining the distinct parts top to bottom.
func mergeHeaders(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	out := make([]string, width)
	for i := range out {
		var parts []string
		for _, r := range rows {
			if i >= len(r) || r[i] == "" {
				continue
			}
			if len(parts) > 0 && parts[len(parts)-1] == r[i] {
				continue
			}
			parts = append(parts, r[i])
		}
		out[i] = strings.Join(parts, " ")
	}
	return out
}

func cellText(c *goquery.Selection) string {
	c.Find("sup.reference, style, script").Remove()
	s := reSpace.ReplaceAllString(c.Text(), " ")
	s = reFootnote.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	return append(row, make([]string, n-len(row))...)
}

// Column returns the index of the header matching name, case and space
// insensitive, or -1.
func (t Table) Column(name string) int {
	want := normalize(name)
	for i, h := range t.Headers {
		if normalize(h) == want {
			return i
		}
	}
	return -1
}

// Select projects the table on the given columns, renamed to as.
func (t Table) Select(cols []string, as []string) (Table, error) {
	if len(as) != len(cols) {
		return Table{}, fmt.Errorf("%d columns but %d names", len(cols), len(as))
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Column(c)
		if idx[i] < 0 {
			return Table{}, fmt.Errorf("column %q not found in %v", c, t.Headers)
		}
	}
	out := Table{Headers: append([]string(nil), as...)}
	for _, r := range t.Rows {
		nr := make([]string, len(idx))
		for i, j := range idx {
			nr[i] = r[j]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}

func normalize(s string) string {
	return strings.ToLower(reSpace.ReplaceAllString(strings.TrimSpace(s), " "))
}
