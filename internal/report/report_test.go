package report

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/regions"
)

func TestSummarize(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	s, err := Summarize(values)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 15.0, s.Sum)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 5.0, s.P95)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values, "input untouched")
	assert.Contains(t, s.String(), "n=5")

	_, err = Summarize(nil)
	assert.True(t, errors.Is(err, ErrNoValues))
}

func TestHistogram(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i % 17)
	}

	require.NoError(t, Histogram(fsys, "docs/hist.png", values, HistogramOptions{Title: "Hexagon counts", XLabel: "count"}))
	data, err := fsys.ReadFile("docs/hist.png")
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.ErrorIs(t, Histogram(fsys, "x.png", nil, HistogramOptions{}), ErrNoValues)
}

func TestBinColors(t *testing.T) {
	var bins []plotter.HistogramBin
	for i := 0; i < 5; i++ {
		bins = append(bins, plotter.HistogramBin{Min: float64(i), Max: float64(i + 1)})
	}

	ramp := colorramp.New(1)
	cols, err := binColors(ramp, bins)
	require.NoError(t, err)
	require.Len(t, cols, 5)
	assert.Equal(t, 0.0, ramp.Min())
	assert.Equal(t, 5.0, ramp.Max())
	assert.Equal(t, color.NRGBA{37, 189, 197, 255}, cols[0], "centre of the first bin")
	assert.Equal(t, color.NRGBA{231, 114, 81, 255}, cols[4], "centre of the last bin")

	// Identical values collapse to one bin coloured mid-ramp.
	cols, err = binColors(colorramp.New(1), []plotter.HistogramBin{{Min: 3, Max: 4}})
	require.NoError(t, err)
	assert.Equal(t, []color.Color{color.NRGBA{235, 245, 179, 255}}, cols)

	cols, err = binColors(colorramp.New(1), nil)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestRegionName(t *testing.T) {
	f := geojson.NewFeature(orb.Point{})
	assert.Equal(t, "region 3", RegionName(f, 2))

	f.Properties[regions.IDProperty] = "05"
	assert.Equal(t, "LNRS 5", RegionName(f, 0))

	f.Properties["name"] = "Cumbria"
	assert.Equal(t, "Cumbria", RegionName(f, 0))
}

func TestRegionChart(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	a := geojson.NewFeature(orb.Point{})
	a.Properties["name"] = "Somerset"
	a.Properties[regions.PropGrade12] = 10.5
	a.Properties[regions.PropGrade3] = 20.0
	a.Properties[regions.PropGrade45] = 5.25
	fc.Append(a)
	fc.Append(geojson.NewFeature(orb.Point{})) // no stats, left out

	var buf bytes.Buffer
	require.NoError(t, RegionChart(&buf, fc))
	html := buf.String()
	assert.True(t, strings.Contains(html, "Somerset"))
	assert.True(t, strings.Contains(html, "Grade 4-5"))

	empty := geojson.NewFeatureCollection()
	empty.Append(geojson.NewFeature(orb.Point{}))
	assert.Error(t, RegionChart(&bytes.Buffer{}, empty))
}
