package hexbin

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/uber/h3-go/v4"

	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/units"
)

// CoordPrecision is the number of decimal places kept in hexagon vertices.
const CoordPrecision = 5

// Boundary returns the closed [lon, lat] ring of an H3 cell.
func Boundary(idx h3.Cell) (orb.Ring, error) {
	b, err := idx.Boundary()
	if err != nil {
		return nil, fmt.Errorf("boundary of %s: %w", idx, err)
	}
	ring := make(orb.Ring, 0, len(b)+1)
	for _, ll := range b {
		ring = append(ring, orb.Point{
			units.Round(ll.Lng, CoordPrecision),
			units.Round(ll.Lat, CoordPrecision),
		})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// Feature converts a cell to a GeoJSON polygon feature.
func (r *Result) Feature(c *Cell) (*geojson.Feature, error) {
	ring, err := Boundary(c.Index)
	if err != nil {
		return nil, err
	}
	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties["count"] = c.Count
	f.Properties["h3_index"] = c.Index.String()
	f.Properties["resolution"] = r.resolution
	f.Properties["sum"] = units.Round(c.Sum, 6)
	f.Properties["mean"] = units.Round(c.Mean(), 6)

	areaKm2, err := h3.CellAreaKm2(c.Index)
	if err == nil && areaKm2 > 0 {
		f.Properties["density"] = units.Round(float64(c.Count)/areaKm2, 4)
	}
	if r.PixelAreaM2 > 0 {
		f.Properties["area_ha"] = units.Round(units.ConvertArea(float64(c.Count)*r.PixelAreaM2, units.Hectares), 2)
	}
	return f, nil
}

// FeatureCollection renders every populated cell, sorted by H3 index. The
// resolution is recorded as the h3_resolution foreign member.
func (r *Result) FeatureCollection() (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{"h3_resolution": r.resolution}
	for _, c := range r.Cells() {
		f, err := r.Feature(c)
		if err != nil {
			return nil, err
		}
		fc.Append(f)
	}
	return fc, nil
}

// Write renders the result and writes it to path atomically.
func Write(fsys fsutil.FileSystem, path string, r *Result) error {
	fc, err := r.FeatureCollection()
	if err != nil {
		return err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode hexagons: %w", err)
	}
	if err := fsutil.WriteFileAtomic(fsys, path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
