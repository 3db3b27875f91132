package regions

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wetwoodland/webmap/internal/units"
)

// EarthRadiusKm is the mean Earth radius used for geodesic areas.
const EarthRadiusKm = 6371.0088

// PropGeodesicArea holds the region's area on the sphere.
const PropGeodesicArea = "geodesic_area_ha"

func ringLoop(r orb.Ring) *s2.Loop {
	pts := make([]s2.Point, 0, len(r))
	for i, p := range r {
		if i == len(r)-1 && len(r) > 1 && p.Equal(r[0]) {
			break
		}
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(p[1], p[0])))
	}
	if len(pts) < 3 {
		return nil
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop
}

func polygonSteradians(p orb.Polygon) float64 {
	total := 0.0
	for i, ring := range p {
		loop := ringLoop(ring)
		if loop == nil {
			continue
		}
		if i == 0 {
			total += loop.Area()
		} else {
			total -= loop.Area()
		}
	}
	return total
}

// GeodesicAreaHa returns the spherical area of a polygonal geometry in
// hectares. Ring orientation is ignored; holes are subtracted.
func GeodesicAreaHa(g orb.Geometry) float64 {
	var sr float64
	switch v := g.(type) {
	case orb.Polygon:
		sr = polygonSteradians(v)
	case orb.MultiPolygon:
		for _, p := range v {
			sr += polygonSteradians(p)
		}
	default:
		return 0
	}
	km2 := sr * EarthRadiusKm * EarthRadiusKm
	return units.ConvertArea(km2*1e6, units.Hectares)
}

// ApplyGeodesicArea sets geodesic_area_ha on every polygonal feature.
func ApplyGeodesicArea(fc *geojson.FeatureCollection) {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[PropGeodesicArea] = units.Round(GeodesicAreaHa(f.Geometry), 2)
	}
}
