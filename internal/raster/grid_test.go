package raster

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridValidity(t *testing.T) {
	g := New(3, 2, 1).WithNoData(-9999)
	g.Set(0, 0, -9999)
	g.Set(1, 0, math.NaN())
	g.Set(2, 0, math.Inf(1))

	assert.False(t, g.Valid(0, 0))
	assert.False(t, g.Valid(1, 0))
	assert.False(t, g.Valid(2, 0))
	assert.True(t, g.Valid(0, 1))
	assert.Equal(t, 3, g.ValidCount())
}

func TestGridWithoutNoData(t *testing.T) {
	g := New(2, 2, 0)
	assert.Equal(t, 4, g.ValidCount(), "zero is valid when no sentinel is set")
}

func TestPixelCenterAndBounds(t *testing.T) {
	g := New(4, 2, 1)
	g.Transform = GeoTransform{100, 10, 0, 500, 0, -10}

	x, y := g.PixelCenter(0, 0)
	assert.Equal(t, 105.0, x)
	assert.Equal(t, 495.0, y)

	x, y = g.PixelCenter(3, 1)
	assert.Equal(t, 135.0, x)
	assert.Equal(t, 485.0, y)

	want := orb.Bound{Min: orb.Point{100, 480}, Max: orb.Point{140, 500}}
	if diff := cmp.Diff(want, g.Bounds()); diff != "" {
		t.Errorf("Bounds() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidRange(t *testing.T) {
	g := New(3, 1, 0).WithNoData(255)
	g.Data = []float64{0.2, 255, 0.8}

	lo, hi, err := g.ValidRange()
	require.NoError(t, err)
	assert.Equal(t, 0.2, lo)
	assert.Equal(t, 0.8, hi)

	empty := New(2, 2, 255).WithNoData(255)
	_, _, err = empty.ValidRange()
	assert.True(t, errors.Is(err, ErrNoValidPixels))
}

func TestNormalized(t *testing.T) {
	g := New(4, 1, 0).WithNoData(-1)
	g.Data = []float64{2, 4, -1, 6}

	n, err := g.Normalized()
	require.NoError(t, err)
	assert.Equal(t, 0.0, n.Data[0])
	assert.Equal(t, 0.5, n.Data[1])
	assert.True(t, math.IsNaN(n.Data[2]))
	assert.Equal(t, 1.0, n.Data[3])
	assert.Equal(t, 3, n.ValidCount())
	assert.Equal(t, g.Transform, n.Transform)
}

func TestNormalizedConstant(t *testing.T) {
	g := New(2, 2, 7)
	n, err := g.Normalized()
	require.NoError(t, err)
	for _, v := range n.Data {
		assert.Equal(t, 0.5, v)
	}
}

func TestIsGeographicCRS(t *testing.T) {
	tests := []struct {
		def  string
		want bool
	}{
		{"", true},
		{"EPSG:4326", true},
		{"EPSG:27700", false},
		{`GEOGCS["WGS 84",DATUM["WGS_1984"]]`, true},
		{`PROJCS["OSGB 1936 / British National Grid",GEOGCS["OSGB 1936"]]`, false},
		{"+proj=longlat +datum=WGS84 +no_defs", true},
		{"+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy", false},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGeographicCRS(tt.def))
		})
	}
}

func TestGridValidate(t *testing.T) {
	assert.NoError(t, New(2, 3, 0).Validate())
	assert.Error(t, (&Grid{Width: 0, Height: 1}).Validate())
	assert.Error(t, (&Grid{Width: 2, Height: 2, Data: make([]float64, 3)}).Validate())
}
