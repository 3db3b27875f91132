// Package overlay renders a suitability raster to a single RGBA image that a
// web map stretches over its geographic bounds.
package overlay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"path"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/raster"
	"github.com/wetwoodland/webmap/internal/units"
)

// Output file names inside the target directory.
const (
	ImageName  = "potential.png"
	BoundsName = "potential_bounds.json"
)

// Render normalises g and colours it with ramp. Row 0 of the image is the
// northern edge regardless of the grid's row order. Invalid cells are fully
// transparent.
func Render(g *raster.Grid, ramp *colorramp.Ramp) (*image.NRGBA, error) {
	norm, err := g.Normalized()
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	southUp := g.Transform[5] > 0
	for row := 0; row < g.Height; row++ {
		dstRow := row
		if southUp {
			dstRow = g.Height - 1 - row
		}
		for col := 0; col < g.Width; col++ {
			img.SetNRGBA(col, dstRow, ramp.NRGBA(norm.At(col, row)))
		}
	}
	return img, nil
}

// Bounds returns [west, south, east, north] of a geographic grid, the order
// deck.gl's BitmapLayer expects.
func Bounds(g *raster.Grid) [4]float64 {
	b := g.Bounds()
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Result names the files written by Write.
type Result struct {
	ImagePath  string
	BoundsPath string
	Bounds     [4]float64
	Width      int
	Height     int
}

// Write renders g (already in EPSG:4326) into dir as potential.png and
// potential_bounds.json.
func Write(fsys fsutil.FileSystem, dir string, g *raster.Grid, opacity float64) (*Result, error) {
	img, err := Render(g, colorramp.New(opacity))
	if err != nil {
		return nil, fmt.Errorf("render overlay: %w", err)
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}

	res := &Result{
		ImagePath:  path.Join(dir, ImageName),
		BoundsPath: path.Join(dir, BoundsName),
		Bounds:     Bounds(g),
		Width:      g.Width,
		Height:     g.Height,
	}
	if err := fsutil.WriteFileAtomic(fsys, res.ImagePath, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.ImagePath, err)
	}

	rounded := res.Bounds
	for i := range rounded {
		rounded[i] = units.Round(rounded[i], 8)
	}
	bounds, err := json.Marshal(rounded)
	if err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(fsys, res.BoundsPath, bounds); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.BoundsPath, err)
	}
	return res, nil
}
