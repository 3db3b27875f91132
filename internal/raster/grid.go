// Package raster holds the in-memory grid model shared by every export tool.
//
// A Grid is a single band of float64 cells in row-major order, georeferenced
// by a GDAL-style affine transform. Reading and writing files lives in the
// gdalio subpackage so the algorithms here can be tested without GDAL.
package raster

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// ErrNoValidPixels is returned when every cell of a grid is no-data.
var ErrNoValidPixels = errors.New("raster has no valid pixels")

// Grid is a single-band raster.
type Grid struct {
	Width     int
	Height    int
	Data      []float64
	Transform GeoTransform
	NoData    float64
	HasNoData bool
	// CRS is a WKT or PROJ definition; empty means unknown.
	CRS string
}

// New returns a grid of the given size with every cell set to fill.
func New(width, height int, fill float64) *Grid {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = fill
	}
	return &Grid{
		Width:     width,
		Height:    height,
		Data:      data,
		Transform: GeoTransform{0, 1, 0, float64(height), 0, -1},
	}
}

// WithNoData sets the no-data sentinel and returns the grid.
func (g *Grid) WithNoData(v float64) *Grid {
	g.NoData = v
	g.HasNoData = true
	return g
}

// At returns the value at (col, row).
func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

// Set stores v at (col, row).
func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.Width+col] = v
}

// IsValid reports whether v is a measurement rather than no-data.
func (g *Grid) IsValid(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return !g.HasNoData || v != g.NoData
}

// Valid reports whether the cell at (col, row) holds a measurement.
func (g *Grid) Valid(col, row int) bool {
	return g.IsValid(g.At(col, row))
}

// ValidCount returns the number of valid cells.
func (g *Grid) ValidCount() int {
	n := 0
	for _, v := range g.Data {
		if g.IsValid(v) {
			n++
		}
	}
	return n
}

// PixelCenter returns the source-CRS coordinate of the centre of (col, row).
func (g *Grid) PixelCenter(col, row int) (x, y float64) {
	return g.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
}

// Bounds returns the extent of the grid in its own CRS.
func (g *Grid) Bounds() orb.Bound {
	b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	corners := [][2]float64{{0, 0}, {float64(g.Width), 0}, {0, float64(g.Height)}, {float64(g.Width), float64(g.Height)}}
	for _, c := range corners {
		x, y := g.Transform.Apply(c[0], c[1])
		b = b.Extend(orb.Point{x, y})
	}
	return b
}

// ValidValues returns the valid cells in row-major order.
func (g *Grid) ValidValues() []float64 {
	out := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if g.IsValid(v) {
			out = append(out, v)
		}
	}
	return out
}

// ValidRange returns the minimum and maximum valid value.
func (g *Grid) ValidRange() (lo, hi float64, err error) {
	vals := g.ValidValues()
	if len(vals) == 0 {
		return 0, 0, ErrNoValidPixels
	}
	return floats.Min(vals), floats.Max(vals), nil
}

// Normalized returns a copy stretched to [0, 1] by the valid min and max.
// Invalid cells become NaN. A constant raster maps every valid cell to 0.5.
func (g *Grid) Normalized() (*Grid, error) {
	lo, hi, err := g.ValidRange()
	if err != nil {
		return nil, err
	}
	out := &Grid{
		Width:     g.Width,
		Height:    g.Height,
		Data:      make([]float64, len(g.Data)),
		Transform: g.Transform,
		NoData:    math.NaN(),
		HasNoData: false,
		CRS:       g.CRS,
	}
	span := hi - lo
	for i, v := range g.Data {
		switch {
		case !g.IsValid(v):
			out.Data[i] = math.NaN()
		case span > 0:
			out.Data[i] = (v - lo) / span
		default:
			out.Data[i] = 0.5
		}
	}
	return out, nil
}

// SameShape reports whether other has the same dimensions as g.
func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.Width == other.Width && g.Height == other.Height
}

// IsGeographic reports whether the grid CRS is a lon/lat system.
func (g *Grid) IsGeographic() bool {
	return IsGeographicCRS(g.CRS)
}

// IsGeographicCRS reports whether def describes geographic coordinates.
// An empty definition is treated as geographic.
func IsGeographicCRS(def string) bool {
	d := strings.TrimSpace(def)
	if d == "" {
		return true
	}
	upper := strings.ToUpper(d)
	switch {
	case strings.HasPrefix(upper, "PROJCS[") || strings.HasPrefix(upper, "PROJCRS["):
		return false
	case strings.HasPrefix(upper, "GEOGCS[") || strings.HasPrefix(upper, "GEOGCRS["):
		return true
	case upper == "EPSG:4326" || upper == "OGC:CRS84":
		return true
	case strings.HasPrefix(upper, "EPSG:"):
		return false
	}
	for _, tok := range strings.Fields(d) {
		if tok == "+proj=longlat" || tok == "+proj=latlong" || tok == "+proj=lonlat" {
			return true
		}
	}
	return false
}

// Validate checks that the grid dimensions match its data.
func (g *Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", g.Width, g.Height)
	}
	if len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("raster data has %d cells, want %d", len(g.Data), g.Width*g.Height)
	}
	return nil
}
