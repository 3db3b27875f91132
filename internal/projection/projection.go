// Package projection converts raster and vector coordinates to WGS84.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"

	"github.com/wetwoodland/webmap/internal/raster"
)

// WGS84 is the PROJ definition of geographic WGS84 coordinates.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// BritishNationalGrid is EPSG:27700 with the seven-parameter shift to WGS84.
const BritishNationalGrid = "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 " +
	"+ellps=airy +towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs"

// Projector maps source CRS coordinates to longitude and latitude.
type Projector interface {
	ToLonLat(x, y float64) (lon, lat float64, err error)
}

type identity struct{}

func (identity) ToLonLat(x, y float64) (float64, float64, error) { return x, y, nil }

// Identity returns a projector for data that is already lon/lat.
func Identity() Projector { return identity{} }

type transformer struct {
	fn proj.Transformer
}

func (t transformer) ToLonLat(x, y float64) (float64, float64, error) {
	return t.fn(x, y)
}

// New returns a projector from the CRS described by def (WKT or PROJ) to
// WGS84. Geographic or empty definitions return the identity projector.
func New(def string) (Projector, error) {
	if raster.IsGeographicCRS(def) {
		return identity{}, nil
	}
	fn, err := Transformer(def, WGS84)
	if err != nil {
		return nil, err
	}
	return transformer{fn: fn}, nil
}

// ForGrid returns the projector for g, preferring override when non-empty.
func ForGrid(g *raster.Grid, override string) (Projector, error) {
	if override != "" {
		return New(override)
	}
	return New(g.CRS)
}

// Transformer returns a coordinate transform between two CRS definitions.
func Transformer(src, dst string) (proj.Transformer, error) {
	srcSR, err := proj.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse source CRS: %w", err)
	}
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return nil, fmt.Errorf("parse target CRS: %w", err)
	}
	fn, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("build transform: %w", err)
	}
	if err := checkTransform(fn); err != nil {
		return nil, fmt.Errorf("source CRS %q: %w", src, err)
	}
	return fn, nil
}

// TransformerFromSR returns a transform from an already parsed source
// reference, such as a shapefile's .prj, to dst.
func TransformerFromSR(src *proj.SR, dst string) (proj.Transformer, error) {
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return nil, fmt.Errorf("parse target CRS: %w", err)
	}
	fn, err := src.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("build transform: %w", err)
	}
	if err := checkTransform(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// checkTransform runs one point through fn. proj accepts unknown projection
// names at parse time and only fails when a coordinate is transformed.
func checkTransform(fn proj.Transformer) error {
	x, y, err := fn(0, 0)
	if err != nil {
		return fmt.Errorf("unusable transform: %w", err)
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return errors.New("unusable transform: origin maps to NaN")
	}
	return nil
}
