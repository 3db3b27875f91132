// Package hexbin aggregates raster pixels into H3 hexagon cells.
//
// Every valid pixel centre is projected to WGS84 and assigned to the H3 cell
// containing it at a fixed resolution. Cells accumulate a pixel count and a
// value sum; addition is commutative so the result does not depend on the
// order pixels are visited.
package hexbin

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/uber/h3-go/v4"

	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/projection"
	"github.com/wetwoodland/webmap/internal/raster"
)

// ErrNoPixels is returned when no pixel passes the validity and threshold
// filters.
var ErrNoPixels = errors.New("no pixels to aggregate")

// DefaultNoData is assumed when a raster declares no sentinel.
const DefaultNoData = 255

// Options controls an aggregation run.
type Options struct {
	// Resolution is the H3 resolution, 0 to 15.
	Resolution int
	// Threshold, when set, counts only pixels with value > *Threshold.
	Threshold *float64
	// MaxPixels caps the number of pixels aggregated. Zero means no cap.
	MaxPixels int
	// Seed drives the sampler used when MaxPixels is exceeded.
	Seed int64
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.Resolution < 0 || o.Resolution > 15 {
		return fmt.Errorf("h3 resolution must be between 0 and 15, got %d", o.Resolution)
	}
	if o.MaxPixels < 0 {
		return fmt.Errorf("max pixels must be non-negative, got %d", o.MaxPixels)
	}
	return nil
}

// Cell is one populated hexagon.
type Cell struct {
	Index h3.Cell
	Count int
	Sum   float64
}

// Mean returns the average pixel value in the cell.
func (c *Cell) Mean() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.Sum / float64(c.Count)
}

// Aggregator accumulates pixels into cells at one resolution.
type Aggregator struct {
	resolution int
	cells      map[h3.Cell]*Cell
	skipped    int
}

// NewAggregator returns an empty aggregator.
func NewAggregator(resolution int) *Aggregator {
	return &Aggregator{resolution: resolution, cells: make(map[h3.Cell]*Cell)}
}

// Add assigns a pixel at (lon, lat) with value v to its cell. Coordinates
// H3 cannot index are counted as skipped and reported as an error.
func (a *Aggregator) Add(lon, lat, v float64) error {
	idx, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), a.resolution)
	if err != nil {
		a.skipped++
		return fmt.Errorf("index (%f, %f): %w", lon, lat, err)
	}
	c, ok := a.cells[idx]
	if !ok {
		c = &Cell{Index: idx}
		a.cells[idx] = c
	}
	c.Count++
	c.Sum += v
	return nil
}

// Resolution returns the H3 resolution of the aggregator.
func (a *Aggregator) Resolution() int { return a.resolution }

// Skipped returns the number of pixels H3 could not index.
func (a *Aggregator) Skipped() int { return a.skipped }

// Len returns the number of populated cells.
func (a *Aggregator) Len() int { return len(a.cells) }

// Total returns the sum of all cell counts.
func (a *Aggregator) Total() int {
	n := 0
	for _, c := range a.cells {
		n += c.Count
	}
	return n
}

// Cells returns the populated cells sorted by H3 index.
func (a *Aggregator) Cells() []*Cell {
	out := make([]*Cell, 0, len(a.cells))
	for _, c := range a.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Result is the outcome of aggregating a grid.
type Result struct {
	*Aggregator
	// Eligible is the number of pixels that passed the filters.
	Eligible int
	// Sampled is true when MaxPixels forced a subsample.
	Sampled bool
	// PixelAreaM2 is the pixel area for projected rasters, zero otherwise.
	PixelAreaM2 float64
}

// Aggregate bins every eligible pixel of g. proj maps the grid CRS to WGS84.
func Aggregate(g *raster.Grid, proj projection.Projector, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !g.HasNoData {
		cp := *g
		g = cp.WithNoData(DefaultNoData)
	}

	pixels := eligible(g, opts.Threshold)
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}
	res := &Result{Aggregator: NewAggregator(opts.Resolution), Eligible: len(pixels)}
	if !g.IsGeographic() {
		res.PixelAreaM2 = g.Transform.PixelArea()
	}

	if opts.MaxPixels > 0 && len(pixels) > opts.MaxPixels {
		monitoring.Logf("sampling %d of %d pixels (seed %d)", opts.MaxPixels, len(pixels), opts.Seed)
		pixels = sample(pixels, opts.MaxPixels, opts.Seed)
		res.Sampled = true
	}

	progress := monitoring.NewProgress("aggregating to hexagons", len(pixels), 0)
	for _, i := range pixels {
		col, row := i%g.Width, i/g.Width
		x, y := g.PixelCenter(col, row)
		lon, lat, err := proj.ToLonLat(x, y)
		if err == nil {
			// Unindexable pixels are tallied by the aggregator.
			_ = res.Add(lon, lat, g.Data[i])
		} else {
			res.skipped++
		}
		progress.Add(1)
	}
	progress.Done()

	if res.Len() == 0 {
		return nil, ErrNoPixels
	}
	if res.Skipped() > 0 {
		monitoring.Logf("skipped %d pixels with invalid coordinates", res.Skipped())
	}
	return res, nil
}

// eligible returns the row-major indices of valid pixels above threshold.
func eligible(g *raster.Grid, threshold *float64) []int {
	out := make([]int, 0)
	for i, v := range g.Data {
		if !g.IsValid(v) {
			continue
		}
		if threshold != nil && !(v > *threshold) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// sample picks n of pixels without replacement. The same seed always picks
// the same pixels; the picks are returned in row-major order.
func sample(pixels []int, n int, seed int64) []int {
	cp := make([]int, len(pixels))
	copy(cp, pixels)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	picked := cp[:n]
	sort.Ints(picked)
	return picked
}
