// Package regions enriches LNRS region polygons with statistics derived from
// point samples and from the regional summary report.
package regions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/points"
	"github.com/wetwoodland/webmap/internal/units"
)

// ErrNoRegions is returned when a regions file holds no features.
var ErrNoRegions = errors.New("no region features")

// Property names written onto each region.
const (
	PropGrade12 = "suitable_ha_grade_12"
	PropGrade3  = "suitable_ha_grade_3"
	PropGrade45 = "suitable_ha_grade_45"
)

// GradeProps lists the grade properties in bucket order.
var GradeProps = [3]string{PropGrade12, PropGrade3, PropGrade45}

// Load reads a region FeatureCollection.
func Load(fsys fsutil.FileSystem, path string) (*geojson.FeatureCollection, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse regions %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRegions)
	}
	return fc, nil
}

// Save writes fc as compact GeoJSON.
func Save(fsys fsutil.FileSystem, path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode regions: %w", err)
	}
	if err := fsutil.WriteFileAtomic(fsys, path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Stats holds hectares per grade bucket for one region.
type Stats [3]float64

// region is a polygonal feature prepared for containment tests.
type region struct {
	bound   orb.Bound
	polygon orb.Polygon
	multi   orb.MultiPolygon
}

func (r *region) contains(p orb.Point) bool {
	if !r.bound.Contains(p) {
		return false
	}
	if r.multi != nil {
		return planar.MultiPolygonContains(r.multi, p)
	}
	return planar.PolygonContains(r.polygon, p)
}

func prepare(f *geojson.Feature) *region {
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return &region{bound: g.Bound(), polygon: g}
	case orb.MultiPolygon:
		return &region{bound: g.Bound(), multi: g}
	default:
		return nil
	}
}

// Join counts graded points inside each region. Each point contributes
// haPerPoint hectares to its bucket; points outside every region and points
// without a grade are skipped. A point inside overlapping regions counts in
// each of them. Features without polygonal geometry get zero stats.
func Join(fc *geojson.FeatureCollection, set *points.Set, haPerPoint float64) []Stats {
	prepared := make([]*region, len(fc.Features))
	for i, f := range fc.Features {
		prepared[i] = prepare(f)
	}

	stats := make([]Stats, len(fc.Features))
	var outside, ungraded int
	progress := monitoring.NewProgress("joining points to regions", len(set.Samples), 0)
	for _, s := range set.Samples {
		progress.Add(1)
		if !s.HasGrade() {
			ungraded++
			continue
		}
		pt := orb.Point{s.Lon, s.Lat}
		hit := false
		for i, r := range prepared {
			if r != nil && r.contains(pt) {
				stats[i][s.Class] += haPerPoint
				hit = true
			}
		}
		if !hit {
			outside++
		}
	}
	progress.Done()
	monitoring.Logf("joined %d points (%d outside all regions, %d without grade)",
		len(set.Samples)-outside-ungraded, outside, ungraded)
	return stats
}

// ApplyStats writes the grade hectares, rounded to 2 dp, onto each feature.
// Other properties are left untouched.
func ApplyStats(fc *geojson.FeatureCollection, stats []Stats) {
	for i, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		for k, name := range GradeProps {
			f.Properties[name] = units.Round(stats[i][k], 2)
		}
	}
}
