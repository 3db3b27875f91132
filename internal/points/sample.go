// Package points samples a suitability raster into [lon, lat, value] points
// for heatmap rendering, optionally tagged with a land-class bucket.
package points

import (
	"errors"
	"fmt"

	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/raster"
	"github.com/wetwoodland/webmap/internal/units"
)

// ErrNoPoints is returned when sampling retains no points.
var ErrNoPoints = errors.New("no points sampled")

// NoClass marks a point whose land-class cell is no-data.
const NoClass = -1

// Land-class buckets.
const (
	ClassGrade12 = 0
	ClassGrade3  = 1
	ClassGrade45 = 2
)

// Sample is one retained pixel.
type Sample struct {
	Lon   float64
	Lat   float64
	Value float64
	// Class is the land-class bucket or NoClass. Only meaningful when the
	// owning Set has classes.
	Class int
}

// HasGrade reports whether the sample falls in one of the three buckets.
func (s Sample) HasGrade() bool {
	return s.Class >= ClassGrade12 && s.Class <= ClassGrade45
}

// Set is the output of a sampling run.
type Set struct {
	Samples   []Sample
	WithClass bool
	Step      int
}

// Options controls sampling.
type Options struct {
	// Step samples every Nth row and column. Ignored when MinValue is set.
	Step int
	// MaxPoints caps the grid estimate by growing Step.
	MaxPoints int
	// MinValue keeps only normalised values >= *MinValue at full resolution.
	MinValue *float64
}

// EffectiveStep returns the stride used for an h×w grid. With MinValue the
// stride is always 1; otherwise it grows from Step until
// (h/step)·(w/step) fits MaxPoints or step reaches min(h, w).
func EffectiveStep(h, w int, opts Options) int {
	if opts.MinValue != nil {
		return 1
	}
	step := opts.Step
	if step < 1 {
		step = 1
	}
	if opts.MaxPoints <= 0 {
		return step
	}
	limit := min(h, w)
	for (h/step)*(w/step) > opts.MaxPoints && step < limit {
		step++
	}
	return step
}

// Extract normalises g (already in EPSG:4326) and samples it. classes, when
// non-nil, must share g's grid and tags each sample with its bucket.
func Extract(g *raster.Grid, classes *raster.Grid, opts Options) (*Set, error) {
	if classes != nil && !g.SameShape(classes) {
		return nil, fmt.Errorf("land-class raster is %dx%d, want %dx%d",
			classes.Width, classes.Height, g.Width, g.Height)
	}
	norm, err := g.Normalized()
	if err != nil {
		return nil, err
	}

	step := 1
	if norm.ValidCount() > 0 {
		step = EffectiveStep(g.Height, g.Width, opts)
	}
	if opts.MinValue == nil && step > opts.Step && opts.Step > 0 {
		monitoring.Logf("step increased to %d to stay under %d points", step, opts.MaxPoints)
	}

	set := &Set{WithClass: classes != nil, Step: step}
	rows := (g.Height + step - 1) / step
	progress := monitoring.NewProgress("sampling points", rows, 0)
	for row := 0; row < g.Height; row += step {
		for col := 0; col < g.Width; col += step {
			v := norm.At(col, row)
			if !norm.IsValid(v) {
				continue
			}
			if opts.MinValue != nil && v < *opts.MinValue {
				continue
			}
			lon, lat := g.PixelCenter(col, row)
			s := Sample{
				Lon:   units.Round(lon, 6),
				Lat:   units.Round(lat, 6),
				Value: units.Round(v, 4),
				Class: NoClass,
			}
			if classes != nil && classes.Valid(col, row) {
				s.Class = int(classes.At(col, row))
			}
			set.Samples = append(set.Samples, s)
		}
		progress.Add(1)
	}
	progress.Done()

	if len(set.Samples) == 0 {
		return nil, ErrNoPoints
	}
	return set, nil
}
