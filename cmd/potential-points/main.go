// Command potential-points samples a potential raster into [lon, lat, value]
// points for heatmap layers, optionally tagged with a land-class bucket.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/points"
	"github.com/wetwoodland/webmap/internal/raster"
	"github.com/wetwoodland/webmap/internal/raster/gdalio"
	"github.com/wetwoodland/webmap/internal/report"
	"github.com/wetwoodland/webmap/internal/version"
)

// defaults supplies flag defaults; -config values and explicit flags override them.
var defaults = config.EmptyPipelineConfig()

var (
	input     = flag.String("input", "", "potential raster (required)")
	output    = flag.String("output", "docs/potential_points.json", "output path (.json is rewritten to .bin with -binary)")
	landvalue = flag.String("landvalue", "", "land-class raster adding a class column")
	step      = flag.Int("step", defaults.GetStep(), "sample every Nth row and column")
	maxPoints = flag.Int("max-points", defaults.GetMaxPoints(), "grow -step until the estimate fits this")
	binaryOut = flag.Bool("binary", false, "write little-endian float32 records")
	srcProj   = flag.String("src-proj", "", "PROJ string overriding the raster CRS")
	histPath  = flag.String("hist", "", "also write a histogram PNG of sampled values")

	configPath  = flag.String("config", "", "pipeline config JSON (explicit flags win)")
	catalogPath = flag.String("catalog", "", "record the run in this SQLite catalog")
	showVersion = flag.Bool("version", false, "print version and exit")

	minValue config.OptionalFloat
)

func init() {
	flag.Var(&minValue, "min-value", "keep only normalised values >= this, at full resolution")
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
	if *step < 1 {
		log.Fatalf("-step must be at least 1, got %d", *step)
	}

	session, err := catalog.Begin(*catalogPath, "potential-points", catalog.FlagParams(flag.CommandLine))
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
		log.Fatalf("potential-points: %v", err)
	}
}

func run(fsys fsutil.FileSystem) (int, []string, error) {
	g, err := gdalio.Warp(*input, gdalio.WarpOptions{DstSRS: gdalio.SRSWGS84, SrcSRS: *srcProj})
	if err != nil {
		return 0, nil, err
	}

	var classes *raster.Grid
	if *landvalue != "" {
		b := g.Bounds()
		classes, err = gdalio.Warp(*landvalue, gdalio.WarpOptions{
			DstSRS:     gdalio.SRSWGS84,
			Width:      g.Width,
			Height:     g.Height,
			Bounds:     &[4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]},
			Resampling: "near",
		})
		if err != nil {
			return 0, nil, err
		}
	}

	set, err := points.Extract(g, classes, points.Options{
		Step:      *step,
		MaxPoints: *maxPoints,
		MinValue:  minValue.Ptr(),
	})
	if err != nil {
		return 0, nil, err
	}
	path, err := points.Write(fsys, *output, set, *binaryOut)
	if err != nil {
		return 0, nil, err
	}
	monitoring.Logf("wrote %d points (step %d) to %s", len(set.Samples), set.Step, path)
	outputs := []string{path}

	if *histPath != "" {
		values := make([]float64, len(set.Samples))
		for i, s := range set.Samples {
			values[i] = s.Value
		}
		err := report.Histogram(fsys, *histPath, values, report.HistogramOptions{
			Title:  "Sampled potential",
			XLabel: "normalised value",
			Bins:   40,
		})
		if err != nil {
			return 0, nil, fmt.Errorf("histogram: %w", err)
		}
		outputs = append(outputs, *histPath)
	}
	return len(set.Samples), outputs, nil
}
