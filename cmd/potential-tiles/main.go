// Command potential-tiles renders a potential raster as a {z}/{x}/{y} PNG
// tile pyramid, natively or through gdal2tiles.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/raster/gdalio"
	"github.com/wetwoodland/webmap/internal/tiles"
	"github.com/wetwoodland/webmap/internal/version"
)

// defaults supplies flag defaults; -config values and explicit flags override them.
var defaults = config.EmptyPipelineConfig()

var (
	input     = flag.String("input", "", "potential raster (required)")
	outputDir = flag.String("output-dir", "docs/tiles", "tile pyramid directory")
	minZoom   = flag.Int("min-zoom", defaults.GetMinZoom(), "lowest zoom level")
	maxZoom   = flag.Int("max-zoom", defaults.GetMaxZoom(), "highest zoom level")
	opacity   = flag.Float64("opacity", defaults.GetOpacity(), "tile opacity (0-1)")
	srcProj   = flag.String("src-proj", "", "PROJ string overriding the raster CRS")
	delegate  = flag.Bool("gdal2tiles", false, "tile with the external gdal2tiles utility")
	binary    = flag.String("gdal2tiles-bin", "", "gdal2tiles executable (searched on PATH when empty)")
	xyz       = flag.Bool("xyz", false, "ask gdal2tiles for XYZ instead of TMS numbering")

	configPath  = flag.String("config", "", "pipeline config JSON (explicit flags win)")
	catalogPath = flag.String("catalog", "", "record the run in this SQLite catalog")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if err := config.ApplyFile(flag.CommandLine, *configPath); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *input == "" {
		log.Fatal("-input is required")
	}

	session, err := catalog.Begin(*catalogPath, "potential-tiles", catalog.FlagParams(flag.CommandLine))
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	var files []string
	err = run(fsutil.OSFileSystem{})
	if err == nil {
		files, err = listFiles(*outputDir)
	}
	if err == nil {
		err = session.Outputs(files...)
	}
	if endErr := session.End(len(files), err); endErr != nil {
		log.Printf("catalog: %v", endErr)
	}
	if err != nil {
		log.Fatalf("potential-tiles: %v", err)
	}
}

func run(fsys fsutil.FileSystem) error {
	opts := tiles.Options{MinZoom: *minZoom, MaxZoom: *maxZoom, Opacity: *opacity}
	if err := opts.Validate(); err != nil {
		return err
	}
	g, err := gdalio.Warp(*input, gdalio.WarpOptions{
		DstSRS: gdalio.SRSWebMercator,
		SrcSRS: *srcProj,
	})
	if err != nil {
		return err
	}

	if *delegate {
		d := &tiles.Delegate{Binary: *binary, WriteTIFF: gdalio.WriteRGBA, XYZ: *xyz}
		if err := d.Run(g, *outputDir, opts); err != nil {
			return err
		}
		monitoring.Logf("gdal2tiles wrote zoom %d-%d to %s", opts.MinZoom, opts.MaxZoom, *outputDir)
		return nil
	}

	m, err := tiles.Generate(fsys, *outputDir, g, opts)
	if err != nil {
		return err
	}
	monitoring.Logf("wrote %d tiles (zoom %d-%d) to %s", m.TileCount, m.MinZoom, m.MaxZoom, *outputDir)
	return nil
}

// listFiles returns every regular file under dir in lexical order.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
