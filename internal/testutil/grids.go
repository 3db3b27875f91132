package testutil

import (
	"math/rand/v2"

	"github.com/wetwoodland/webmap/internal/raster"
)

// NoData is the sentinel used by the fixture grids.
const NoData = -9999.0

// Fixture grids sit in the English Midlands with ~10 m pixels.
const (
	OriginLon = -1.5
	OriginLat = 52.5
	PixelDeg  = 0.0001
)

// EmptyGrid returns a geographic grid with every cell set to NoData.
func EmptyGrid(width, height int) *raster.Grid {
	g := raster.New(width, height, NoData).WithNoData(NoData)
	g.Transform = raster.GeoTransform{OriginLon, PixelDeg, 0, OriginLat, 0, -PixelDeg}
	g.CRS = "EPSG:4326"
	return g
}

// FillBlock sets a w×h block starting at (col, row) to v.
func FillBlock(g *raster.Grid, col, row, w, h int, v float64) *raster.Grid {
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			g.Set(c, r, v)
		}
	}
	return g
}

// BlockGrid returns a width×height grid whose only valid cells form a
// size×size block of v at (col, row).
func BlockGrid(width, height, col, row, size int, v float64) *raster.Grid {
	return FillBlock(EmptyGrid(width, height), col, row, size, size, v)
}

// RandomGrid returns a grid where each cell is valid with probability
// validFraction and holds a uniform value in [0, 1). The same seed always
// yields the same grid.
func RandomGrid(width, height int, validFraction float64, seed uint64) *raster.Grid {
	g := EmptyGrid(width, height)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range g.Data {
		if rng.Float64() < validFraction {
			g.Data[i] = rng.Float64()
		}
	}
	return g
}

// ProjectedGrid returns a fully valid grid on British National Grid with
// 25 m pixels, filled with v.
func ProjectedGrid(width, height int, v float64) *raster.Grid {
	g := raster.New(width, height, v).WithNoData(NoData)
	g.Transform = raster.GeoTransform{407000, 25, 0, 287000, 0, -25}
	g.CRS = "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy " +
		"+towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs"
	return g
}
