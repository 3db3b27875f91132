// Command hexagons aggregates a raster into H3 hexagons and writes them as
// GeoJSON.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/hexbin"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/projection"
	"github.com/wetwoodland/webmap/internal/raster/gdalio"
	"github.com/wetwoodland/webmap/internal/report"
	"github.com/wetwoodland/webmap/internal/version"
)

// defaults supplies flag defaults; -config values and explicit flags override them.
var defaults = config.EmptyPipelineConfig()

var (
	input      = flag.String("input", "", "input raster (required)")
	output     = flag.String("output", "docs/hexagons.geojson", "output GeoJSON path")
	resolution = flag.Int("resolution", defaults.GetResolution(), "H3 resolution (0-15; 7≈5km, 8≈1.2km, 9≈500m)")
	maxPixels  = flag.Int("max-pixels", defaults.GetMaxPixels(), "sample at most this many pixels (0 = all)")
	seed       = flag.Int64("seed", defaults.GetSeed(), "seed for pixel sampling")
	srcProj    = flag.String("src-proj", "", "PROJ string overriding the raster CRS")
	histPath   = flag.String("hist", "", "also write a histogram PNG of pixels per hexagon")

	configPath  = flag.String("config", "", "pipeline config JSON (explicit flags win)")
	catalogPath = flag.String("catalog", "", "record the run in this SQLite catalog")
	showVersion = flag.Bool("version", false, "print version and exit")

	threshold config.OptionalFloat
)

func init() {
	flag.Var(&threshold, "threshold", "count only pixels with value above this")
}

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

	session, err := catalog.Begin(*catalogPath, "hexagons", catalog.FlagParams(flag.CommandLine))
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	n, outputs, err := run(fsutil.OSFileSystem{})
	if err == nil {
		err = session.Outputs(outputs...)
	}
	if endErr := session.End(n, err); endErr != nil {
		log.Printf("catalog: %v", endErr)
	}
	if err != nil {
		log.Fatalf("hexagons: %v", err)
	}
}

func run(fsys fsutil.FileSystem) (int, []string, error) {
	g, err := gdalio.Open(*input)
	if err != nil {
		return 0, nil, err
	}
	proj, err := projection.ForGrid(g, *srcProj)
	if err != nil {
		return 0, nil, err
	}
	monitoring.Logf("raster %s: %dx%d, %d valid pixels", *input, g.Width, g.Height, g.ValidCount())

	res, err := hexbin.Aggregate(g, proj, hexbin.Options{
		Resolution: *resolution,
		Threshold:  threshold.Ptr(),
		MaxPixels:  *maxPixels,
		Seed:       *seed,
	})
	if errors.Is(err, hexbin.ErrNoPixels) {
		return 0, nil, fmt.Errorf("%s: %w", *input, err)
	}
	if err != nil {
		return 0, nil, err
	}
	if err := hexbin.Write(fsys, *output, res); err != nil {
		return 0, nil, err
	}
	monitoring.Logf("wrote %d hexagons at resolution %d to %s", res.Len(), *resolution, *output)
	outputs := []string{*output}

	counts := make([]float64, 0, res.Len())
	for _, c := range res.Cells() {
		counts = append(counts, float64(c.Count))
	}
	if s, err := report.Summarize(counts); err == nil {
		monitoring.Logf("pixels per hexagon: %s", s)
	}
	if *histPath != "" {
		err := report.Histogram(fsys, *histPath, counts, report.HistogramOptions{
			Title:  fmt.Sprintf("Pixels per H3 cell (resolution %d)", *resolution),
			XLabel: "pixels",
			Bins:   50,
		})
		if err != nil {
			return 0, nil, fmt.Errorf("histogram: %w", err)
		}
		outputs = append(outputs, *histPath)
	}
	return res.Len(), outputs, nil
}
