package overlay

import (
	"bytes"
	"encoding/json"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/raster"
	"github.com/wetwoodland/webmap/internal/testutil"
)

func TestRenderColoursAndTransparency(t *testing.T) {
	g := testutil.EmptyGrid(3, 2)
	g.Set(0, 0, 0)
	g.Set(2, 0, 1)
	g.Set(1, 1, 0.5)

	img, err := Render(g, colorramp.New(0.85))
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{1, 152, 189, 216}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{209, 55, 78, 216}, img.NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(1, 0), "no-data is transparent")
	assert.Equal(t, uint8(216), img.NRGBAAt(1, 1).A)
}

func TestRenderFlipsSouthUpGrids(t *testing.T) {
	g := testutil.EmptyGrid(1, 2)
	g.Transform = raster.GeoTransform{0, 1, 0, 50, 0, 1}
	g.Data = []float64{0, 1} // row 0 is the southern row

	img, err := Render(g, colorramp.New(1))
	require.NoError(t, err)
	assert.Equal(t, colorramp.Stops[5], img.NRGBAAt(0, 0), "north row drawn first")
	assert.Equal(t, colorramp.Stops[0], img.NRGBAAt(0, 1))
}

func TestRenderNoValidPixels(t *testing.T) {
	_, err := Render(testutil.EmptyGrid(2, 2), colorramp.New(1))
	assert.ErrorIs(t, err, raster.ErrNoValidPixels)
}

func TestWrite(t *testing.T) {
	g := testutil.RandomGrid(16, 6, 0.8, 4)
	g.Transform = raster.Extent(-6, 50, 2, 56, 16, 6)
	fsys := fsutil.NewMemoryFileSystem()

	res, err := Write(fsys, "docs", g, 0.85)
	require.NoError(t, err)
	assert.Equal(t, "docs/potential.png", res.ImagePath)
	assert.Equal(t, [4]float64{-6, 50, 2, 56}, res.Bounds)

	raw, err := fsys.ReadFile("docs/potential_bounds.json")
	require.NoError(t, err)
	var bounds []float64
	require.NoError(t, json.Unmarshal(raw, &bounds))
	assert.Equal(t, []float64{-6, 50, 2, 56}, bounds)

	data, err := fsys.ReadFile("docs/potential.png")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	// Same input, same bytes.
	_, err = Write(fsys, "again", g, 0.85)
	require.NoError(t, err)
	again, err := fsys.ReadFile("again/potential.png")
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
