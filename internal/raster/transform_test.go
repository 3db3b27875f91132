package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoTransformRoundTrip(t *testing.T) {
	tr := GeoTransform{400000, 25, 0, 600000, 0, -25}
	inv, err := tr.Invert()
	require.NoError(t, err)

	x, y := tr.Apply(10.5, 20.5)
	px, py := inv.Apply(x, y)
	assert.InDelta(t, 10.5, px, 1e-9)
	assert.InDelta(t, 20.5, py, 1e-9)
}

func TestGeoTransformRotated(t *testing.T) {
	tr := GeoTransform{10, 2, 0.5, 20, 0.25, -2}
	inv, err := tr.Invert()
	require.NoError(t, err)

	x, y := tr.Apply(3, 7)
	px, py := inv.Apply(x, y)
	assert.InDelta(t, 3, px, 1e-9)
	assert.InDelta(t, 7, py, 1e-9)
	assert.False(t, tr.NorthUp())
}

func TestGeoTransformSingular(t *testing.T) {
	_, err := GeoTransform{0, 0, 0, 0, 0, 0}.Invert()
	assert.Error(t, err)
}

func TestPixelArea(t *testing.T) {
	assert.Equal(t, 625.0, GeoTransform{0, 25, 0, 0, 0, -25}.PixelArea())
	assert.Equal(t, 100.0, GeoTransform{0, 10, 0, 0, 0, 10}.PixelArea())
}

func TestExtent(t *testing.T) {
	tr := Extent(-2, 50, 2, 54, 400, 200)
	assert.True(t, tr.NorthUp())

	x, y := tr.Apply(0, 0)
	assert.Equal(t, -2.0, x)
	assert.Equal(t, 54.0, y)

	x, y = tr.Apply(400, 200)
	assert.InDelta(t, 2.0, x, 1e-12)
	assert.InDelta(t, 50.0, y, 1e-12)
}
