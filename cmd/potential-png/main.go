// Command potential-png renders a potential raster as a single north-up PNG
// overlay with its WGS84 bounds.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/overlay"
	"github.com/wetwoodland/webmap/internal/raster/gdalio"
	"github.com/wetwoodland/webmap/internal/version"
)

// defaults supplies flag defaults; -config values and explicit flags override them.
var defaults = config.EmptyPipelineConfig()

var (
	input     = flag.String("input", "", "potential raster (required)")
	outputDir = flag.String("output-dir", "docs", "directory for potential.png and potential_bounds.json")
	width     = flag.Int("width", defaults.GetWidth(), "output width in pixels; height keeps the aspect ratio")
	opacity   = flag.Float64("opacity", defaults.GetOpacity(), "overlay opacity (0-1)")
	srcProj   = flag.String("src-proj", "", "PROJ string overriding the raster CRS")

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
	if *opacity < 0 || *opacity > 1 {
		log.Fatalf("-opacity must be between 0 and 1, got %g", *opacity)
	}

	session, err := catalog.Begin(*catalogPath, "potential-png", catalog.FlagParams(flag.CommandLine))
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	res, err := run(fsutil.OSFileSystem{})
	n := 0
	if err == nil {
		n = res.Width * res.Height
		err = session.Outputs(res.ImagePath, res.BoundsPath)
	}
	if endErr := session.End(n, err); endErr != nil {
		log.Printf("catalog: %v", endErr)
	}
	if err != nil {
		log.Fatalf("potential-png: %v", err)
	}
}

func run(fsys fsutil.FileSystem) (*overlay.Result, error) {
	g, err := gdalio.Warp(*input, gdalio.WarpOptions{
		DstSRS: gdalio.SRSWGS84,
		SrcSRS: *srcProj,
		Width:  *width,
	})
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(*outputDir, 0755); err != nil {
		return nil, err
	}
	res, err := overlay.Write(fsys, *outputDir, g, *opacity)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("wrote %dx%d overlay to %s, bounds %v", res.Width, res.Height, res.ImagePath, res.Bounds)
	return res, nil
}
