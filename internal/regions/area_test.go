package regions

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

// One degree square at the equator is about 12,364 km².
const equatorSquareHa = 1_236_360.0

func TestGeodesicAreaSquare(t *testing.T) {
	got := GeodesicAreaHa(square(0, 0, 1, 1))
	assert.InEpsilon(t, equatorSquareHa, got, 0.005)
}

func TestGeodesicAreaIgnoresOrientation(t *testing.T) {
	ccw := square(0, 0, 1, 1)
	cw := orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}}
	assert.InDelta(t, GeodesicAreaHa(ccw), GeodesicAreaHa(cw), 1)
}

func TestGeodesicAreaHoleAndMulti(t *testing.T) {
	withHole := orb.Polygon{
		square(0, 0, 1, 1)[0],
		square(0.25, 0.25, 0.75, 0.75)[0],
	}
	assert.InEpsilon(t, 0.75*equatorSquareHa, GeodesicAreaHa(withHole), 0.005)

	mp := orb.MultiPolygon{square(0, 0, 1, 1), square(2, 0, 3, 1)}
	assert.InEpsilon(t, 2*equatorSquareHa, GeodesicAreaHa(mp), 0.005)

	assert.Zero(t, GeodesicAreaHa(orb.Point{1, 2}))
}

func TestApplyGeodesicArea(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square(0, 0, 1, 1)))
	fc.Append(geojson.NewFeature(orb.Point{0, 0}))
	fc.Append(&geojson.Feature{Type: "Feature"})

	ApplyGeodesicArea(fc)
	assert.Contains(t, fc.Features[0].Properties, PropGeodesicArea)
	assert.NotContains(t, fc.Features[1].Properties, PropGeodesicArea)
	assert.Nil(t, fc.Features[2].Properties)
}
