// Package tiles cuts a Web Mercator suitability raster into a {z}/{x}/{y}
// PNG tile pyramid.
//
// The native tiler samples the coloured raster with nearest-neighbour
// lookup for every 256×256 XYZ tile that intersects it. Delegate mode hands
// an RGBA GeoTIFF to the gdal2tiles utility instead.
package tiles

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"path"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/overlay"
	"github.com/wetwoodland/webmap/internal/raster"
	"github.com/wetwoodland/webmap/internal/units"
)

// TileSize is the edge length of a tile in pixels.
const TileSize = 256

// MaxLat is the latitude limit of the Web Mercator tiling.
const MaxLat = 85.05112877980659

// ManifestName is written next to the zoom directories.
const ManifestName = "tiles.json"

// Options controls pyramid generation.
type Options struct {
	MinZoom int
	MaxZoom int
	Opacity float64
}

// Validate checks the zoom range.
func (o Options) Validate() error {
	if o.MinZoom < 0 || o.MaxZoom > 24 || o.MinZoom > o.MaxZoom {
		return fmt.Errorf("invalid zoom range %d-%d", o.MinZoom, o.MaxZoom)
	}
	return nil
}

// Manifest describes a generated pyramid.
type Manifest struct {
	Bounds    [4]float64 `json:"bounds"`
	MinZoom   int        `json:"minzoom"`
	MaxZoom   int        `json:"maxzoom"`
	Scheme    string     `json:"scheme"`
	Format    string     `json:"format"`
	TileSize  int        `json:"tile_size"`
	TileCount int        `json:"tile_count"`
}

// LonLatBounds converts a Web Mercator bound to WGS84, clamped to the
// tiling latitude range.
func LonLatBounds(merc orb.Bound) orb.Bound {
	lo := project.Mercator.ToWGS84(merc.Min)
	hi := project.Mercator.ToWGS84(merc.Max)
	lo[1] = math.Max(lo[1], -MaxLat)
	hi[1] = math.Min(hi[1], MaxLat)
	return orb.Bound{Min: lo, Max: hi}
}

// TileRange returns the inclusive x and y tile ranges covering ll at zoom z.
func TileRange(ll orb.Bound, z maptile.Zoom) (minX, minY, maxX, maxY uint32) {
	nw := maptile.At(orb.Point{ll.Min[0], ll.Max[1]}, z)
	se := maptile.At(orb.Point{ll.Max[0], ll.Min[1]}, z)
	last := uint32(1)<<uint32(z) - 1
	return nw.X, nw.Y, min(se.X, last), min(se.Y, last)
}

// MercatorBound returns the Web Mercator extent of t.
func MercatorBound(t maptile.Tile) orb.Bound {
	b := t.Bound()
	return orb.Bound{
		Min: project.WGS84.ToMercator(b.Min),
		Max: project.WGS84.ToMercator(b.Max),
	}
}

// Tiler samples a coloured Web Mercator grid into tiles.
type Tiler struct {
	grid   *raster.Grid
	inv    raster.GeoTransform
	colors []color.NRGBA
}

// NewTiler normalises and colours g, which must be in EPSG:3857.
func NewTiler(g *raster.Grid, opacity float64) (*Tiler, error) {
	norm, err := g.Normalized()
	if err != nil {
		return nil, err
	}
	inv, err := g.Transform.Invert()
	if err != nil {
		return nil, err
	}
	ramp := colorramp.New(opacity)
	colors := make([]color.NRGBA, len(norm.Data))
	for i, v := range norm.Data {
		colors[i] = ramp.NRGBA(v)
	}
	return &Tiler{grid: g, inv: inv, colors: colors}, nil
}

// Render draws tile t. It reports false when every pixel is transparent.
func (tl *Tiler) Render(t maptile.Tile) (*image.NRGBA, bool) {
	b := MercatorBound(t)
	dx := (b.Max[0] - b.Min[0]) / TileSize
	dy := (b.Max[1] - b.Min[1]) / TileSize
	img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	drawn := false
	for py := 0; py < TileSize; py++ {
		my := b.Max[1] - (float64(py)+0.5)*dy
		for px := 0; px < TileSize; px++ {
			mx := b.Min[0] + (float64(px)+0.5)*dx
			fc, fr := tl.inv.Apply(mx, my)
			col, row := int(math.Floor(fc)), int(math.Floor(fr))
			if col < 0 || row < 0 || col >= tl.grid.Width || row >= tl.grid.Height {
				continue
			}
			c := tl.colors[row*tl.grid.Width+col]
			if c.A == 0 {
				continue
			}
			img.SetNRGBA(px, py, c)
			drawn = true
		}
	}
	return img, drawn
}

// TilePath returns the relative path of t inside the pyramid.
func TilePath(t maptile.Tile) string {
	return path.Join(strconv.Itoa(int(t.Z)), strconv.FormatUint(uint64(t.X), 10), strconv.FormatUint(uint64(t.Y), 10)+".png")
}

// Generate writes the XYZ pyramid for g (EPSG:3857) into dir.
func Generate(fsys fsutil.FileSystem, dir string, g *raster.Grid, opts Options) (*Manifest, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tl, err := NewTiler(g, opts.Opacity)
	if err != nil {
		return nil, fmt.Errorf("colour raster: %w", err)
	}
	ll := LonLatBounds(g.Bounds())

	m := &Manifest{
		Bounds: [4]float64{
			units.Round(ll.Min[0], 6), units.Round(ll.Min[1], 6),
			units.Round(ll.Max[0], 6), units.Round(ll.Max[1], 6),
		},
		MinZoom:  opts.MinZoom,
		MaxZoom:  opts.MaxZoom,
		Scheme:   "xyz",
		Format:   "png",
		TileSize: TileSize,
	}
	for z := opts.MinZoom; z <= opts.MaxZoom; z++ {
		minX, minY, maxX, maxY := TileRange(ll, maptile.Zoom(z))
		total := int(maxX-minX+1) * int(maxY-minY+1)
		progress := monitoring.NewProgress(fmt.Sprintf("zoom %d", z), total, 0)
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				t := maptile.New(x, y, maptile.Zoom(z))
				img, ok := tl.Render(t)
				progress.Add(1)
				if !ok {
					continue
				}
				data, err := overlay.EncodePNG(img)
				if err != nil {
					return nil, fmt.Errorf("encode tile %s: %w", TilePath(t), err)
				}
				name := path.Join(dir, TilePath(t))
				if err := fsutil.WriteFileAtomic(fsys, name, data); err != nil {
					return nil, fmt.Errorf("write %s: %w", name, err)
				}
				m.TileCount++
			}
		}
		progress.Done()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(fsys, path.Join(dir, ManifestName), data); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}
