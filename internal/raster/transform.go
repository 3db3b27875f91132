package raster

import (
	"errors"
	"math"
)

// GeoTransform is an affine pixel-to-world transform in GDAL order:
// x0, pixel width, row rotation, y0, column rotation, pixel height.
type GeoTransform [6]float64

// Apply maps pixel coordinates to world coordinates.
func (t GeoTransform) Apply(px, py float64) (x, y float64) {
	x = t[0] + px*t[1] + py*t[2]
	y = t[3] + px*t[4] + py*t[5]
	return x, y
}

// Invert returns the world-to-pixel transform.
func (t GeoTransform) Invert() (GeoTransform, error) {
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 || math.IsNaN(det) {
		return GeoTransform{}, errors.New("geotransform is not invertible")
	}
	inv := 1 / det
	return GeoTransform{
		(t[2]*t[3] - t[0]*t[5]) * inv,
		t[5] * inv,
		-t[2] * inv,
		(t[0]*t[4] - t[1]*t[3]) * inv,
		-t[4] * inv,
		t[1] * inv,
	}, nil
}

// PixelArea returns the area of one pixel in squared CRS units.
func (t GeoTransform) PixelArea() float64 {
	return math.Abs(t[1]*t[5] - t[2]*t[4])
}

// NorthUp reports whether the transform has no rotation and a negative
// pixel height.
func (t GeoTransform) NorthUp() bool {
	return t[2] == 0 && t[4] == 0 && t[5] < 0
}

// Extent returns a north-up transform covering [minX, maxX] × [minY, maxY]
// with the given pixel size.
func Extent(minX, minY, maxX, maxY float64, width, height int) GeoTransform {
	return GeoTransform{
		minX, (maxX - minX) / float64(width), 0,
		maxY, 0, -(maxY - minY) / float64(height),
	}
}
