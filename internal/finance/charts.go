package finance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"

	"superinvestorResearch/internal/simulator"
)

// ChartPlotter renders every purchase plan it receives into a PNG file under
// Dir, named <strategy>-<n>.png.
type ChartPlotter struct {
	Dir   string
	log   zerolog.Logger
	count map[simulator.Strategy]int
	files []string
}

func NewChartPlotter(dir string, log zerolog.Logger) *ChartPlotter {
	return &ChartPlotter{
		Dir:   dir,
		log:   log.With().Str("component", "charts").Logger(),
		count: map[simulator.Strategy]int{},
	}
}

// PlotPurchases implements simulator.Plotter.
func (p *ChartPlotter) PlotPurchases(st simulator.Strategy, s simulator.Series, plan simulator.PurchasePlan) error {
	p.count[st]++
	title := fmt.Sprintf("%s • %d purchases • trial %d", strings.ToUpper(string(st)), len(plan), p.count[st])
	img, err := RenderPurchases(title, s, plan)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	file := filepath.Join(p.Dir, fmt.Sprintf("%s-%d.png", st, p.count[st]))
	if err := os.WriteFile(file, img, 0o644); err != nil {
		return err
	}
	p.files = append(p.files, file)
	p.log.Debug().Str("file", file).Msg("chart written")
	return nil
}

// Files lists the charts written so far.
func (p *ChartPlotter) Files() []string { return append([]string(nil), p.files...) }

// RenderPurchases draws the series as a line and the purchase points as bars.
func RenderPurchases(title string, s simulator.Series, plan simulator.PurchasePlan) ([]byte, error) {
	if s.Len() < 2 {
		return nil, errors.New("not enough data points")
	}
	values := s.Values()
	buys := make([]float64, len(values))
	for _, pos := range plan {
		if pos < 0 || pos >= len(values) {
			return nil, fmt.Errorf("purchase position %d outside series of length %d", pos, len(values))
		}
		buys[pos] = values[pos]
	}

	xLabels := make([]string, len(values))
	yMax := values[0]
	for i, v := range values {
		xLabels[i] = s.Label(i)
		if v > yMax {
			yMax = v
		}
	}
	yMin := 0.0
	yMax += yMax * 0.05
	split := 8
	if len(xLabels) < split*2 {
		split = max(len(xLabels)/2, 1)
	}

	names := []string{"index", "purchases"}
	seriesList := charts.NewSeriesListDataFromValues([][]float64{values, buys}, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	seriesList[1].Type = charts.ChartTypeBar

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return painter.Bytes()
}
