package tiles

import (
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/overlay"
	"github.com/wetwoodland/webmap/internal/raster"
)

// EPSGWebMercator is the CRS code of the tiling grid.
const EPSGWebMercator = 3857

// GeoTIFFWriter writes an RGBA image as a georeferenced GeoTIFF.
type GeoTIFFWriter func(path string, img *image.NRGBA, transform raster.GeoTransform, epsg int) error

// Delegate tiles through the external gdal2tiles utility.
type Delegate struct {
	// Binary is the gdal2tiles executable; FindGdal2Tiles when empty.
	Binary    string
	Builder   CommandBuilder
	WriteTIFF GeoTIFFWriter
	// TempDir holds the intermediate GeoTIFF; os.TempDir when empty.
	TempDir string
	// XYZ asks gdal2tiles for XYZ numbering instead of its TMS default.
	XYZ bool
}

// FindGdal2Tiles returns the first gdal2tiles executable on PATH.
func FindGdal2Tiles() (string, error) {
	for _, name := range []string{"gdal2tiles.py", "gdal2tiles"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errors.New("gdal2tiles not found on PATH")
}

// Args returns the gdal2tiles argument list.
func (d *Delegate) Args(tif, outDir string, opts Options) []string {
	args := []string{
		"-r", "near",
		"-z", fmt.Sprintf("%d-%d", opts.MinZoom, opts.MaxZoom),
		"--processes=1",
	}
	if d.XYZ {
		args = append(args, "--xyz")
	}
	return append(args, tif, outDir)
}

// Run colours g (EPSG:3857), writes it to a temporary RGBA GeoTIFF and
// runs gdal2tiles into outDir. The temporary file is always removed.
func (d *Delegate) Run(g *raster.Grid, outDir string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if d.WriteTIFF == nil {
		return errors.New("no GeoTIFF writer configured")
	}
	bin := d.Binary
	if bin == "" {
		found, err := FindGdal2Tiles()
		if err != nil {
			return err
		}
		bin = found
	}
	builder := d.Builder
	if builder == nil {
		builder = RealCommandBuilder{}
	}

	img, err := overlay.Render(g, colorramp.New(opts.Opacity))
	if err != nil {
		return fmt.Errorf("colour raster: %w", err)
	}
	// Render draws north-up, so georeference the image north-up too.
	b := g.Bounds()
	transform := raster.Extent(b.Min[0], b.Min[1], b.Max[0], b.Max[1], g.Width, g.Height)

	tmp, err := os.CreateTemp(d.TempDir, "tiles-*.tif")
	if err != nil {
		return fmt.Errorf("create temporary GeoTIFF: %w", err)
	}
	tif := tmp.Name()
	tmp.Close()
	defer os.Remove(tif)

	if err := d.WriteTIFF(tif, img, transform, EPSGWebMercator); err != nil {
		return fmt.Errorf("write temporary GeoTIFF: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	args := d.Args(tif, outDir, opts)
	monitoring.Logf("running: %s %s", bin, strings.Join(args, " "))
	out, err := builder.BuildCommand(bin, args...).Run()
	if err != nil {
		return fmt.Errorf("gdal2tiles failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
