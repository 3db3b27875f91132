package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/fsutil"
)

// HistogramOptions labels a histogram.
type HistogramOptions struct {
	Title  string
	XLabel string
	Bins   int
}

// HistogramPNG renders values as a PNG histogram.
func HistogramPNG(values []float64, o HistogramOptions) ([]byte, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	bins := o.Bins
	if bins <= 0 {
		bins = 20
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = "Frequency"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("build histogram: %w", err)
	}
	h.LineStyle.Width = vg.Points(0.5)

	// One plotter per bin so each bar takes its own ramp colour.
	cols, err := binColors(colorramp.New(1), h.Bins)
	if err != nil {
		return nil, err
	}
	for i, b := range h.Bins {
		p.Add(&plotter.Histogram{
			Bins:      []plotter.HistogramBin{b},
			Width:     h.Width,
			FillColor: cols[i],
			LineStyle: h.LineStyle,
		})
	}

	w, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode histogram: %w", err)
	}
	return buf.Bytes(), nil
}

// binColors stretches cm over the span of bins and returns the colour at
// each bin centre.
func binColors(cm palette.ColorMap, bins []plotter.HistogramBin) ([]color.Color, error) {
	if len(bins) == 0 {
		return nil, nil
	}
	cm.SetMin(bins[0].Min)
	cm.SetMax(bins[len(bins)-1].Max)
	cols := make([]color.Color, len(bins))
	for i, b := range bins {
		c, err := cm.At((b.Min + b.Max) / 2)
		if err != nil {
			return nil, fmt.Errorf("colour bin %d: %w", i, err)
		}
		cols[i] = c
	}
	return cols, nil
}

// Histogram renders values and writes the PNG to path.
func Histogram(fsys fsutil.FileSystem, path string, values []float64, o HistogramOptions) error {
	data, err := HistogramPNG(values, o)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(fsys, path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
