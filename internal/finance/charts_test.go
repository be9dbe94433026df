package finance

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superinvestorResearch/internal/simulator"
)

var pngMagic = []byte("\x89PNG")

func TestRenderPurchases(t *testing.T) {
	s, err := simulator.NewPositional([]float64{100, 90, 80, 70, 60, 50})
	require.NoError(t, err)

	img, err := RenderPurchases("optimal", s, simulator.PurchasePlan{2, 5})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = RenderPurchases("bad", s, simulator.PurchasePlan{6})
	assert.Error(t, err)
}

func TestChartPlotterWritesOneFilePerPlan(t *testing.T) {
	s, err := simulator.NewPositional([]float64{5, 4, 6, 3, 7, 2, 8, 1})
	require.NoError(t, err)
	dir := t.TempDir()
	p := NewChartPlotter(dir, zerolog.Nop())

	_, err = simulator.Simulate(s, 4, simulator.Random, simulator.Options{Plot: true, Plotter: p, Repetitions: 3})
	require.NoError(t, err)
	_, err = simulator.Simulate(s, 4, simulator.Worst, simulator.Options{Plot: true, Plotter: p})
	require.NoError(t, err)

	files := p.Files()
	require.Len(t, files, 4)
	assert.Equal(t, filepath.Join(dir, "random-3.png"), files[2])
	assert.Equal(t, filepath.Join(dir, "worst-1.png"), files[3])
	for _, f := range files {
		img, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(img, pngMagic), f)
	}
}
