// Command lnrs-stats sums graded point samples inside each LNRS region and
// writes the hectares onto the region features.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/points"
	"github.com/wetwoodland/webmap/internal/regions"
	"github.com/wetwoodland/webmap/internal/report"
	"github.com/wetwoodland/webmap/internal/version"
)

// defaults supplies flag defaults; -config values and explicit flags override them.
var defaults = config.EmptyPipelineConfig()

var (
	regionsPath  = flag.String("regions", "docs/lnrs_regions.geojson", "LNRS regions GeoJSON")
	pointsPath   = flag.String("points", "docs/potential_points.bin", "binary points with a class column")
	output       = flag.String("output", "", "output GeoJSON (defaults to overwriting -regions)")
	haPerPoint   = flag.Float64("ha-per-point", defaults.GetHaPerPoint(), "hectares each point represents")
	geodesicArea = flag.Bool("geodesic-area", false, "also write geodesic_area_ha per region")
	chartPath    = flag.String("chart", "", "also write an HTML bar chart of the results")

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
	if *haPerPoint <= 0 {
		log.Fatalf("-ha-per-point must be positive, got %g", *haPerPoint)
	}
	if *output == "" {
		*output = *regionsPath
	}

	session, err := catalog.Begin(*catalogPath, "lnrs-stats", catalog.FlagParams(flag.CommandLine))
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
		log.Fatalf("lnrs-stats: %v", err)
	}
}

func run(fsys fsutil.FileSystem) (int, []string, error) {
	fc, err := regions.Load(fsys, *regionsPath)
	if err != nil {
		return 0, nil, err
	}
	set, err := points.ReadBinary(fsys, *pointsPath, true)
	if err != nil {
		return 0, nil, err
	}
	monitoring.Logf("loaded %d regions and %d points", len(fc.Features), len(set.Samples))

	stats := regions.Join(fc, set, *haPerPoint)
	regions.ApplyStats(fc, stats)
	if *geodesicArea {
		regions.ApplyGeodesicArea(fc)
	}
	for i, f := range fc.Features {
		s := stats[i]
		monitoring.Logf("%s: grade 1-2 %.2f ha, grade 3 %.2f ha, grade 4-5 %.2f ha",
			report.RegionName(f, i), s[0], s[1], s[2])
	}

	if err := regions.Save(fsys, *output, fc); err != nil {
		return 0, nil, err
	}
	outputs := []string{*output}

	if *chartPath != "" {
		var buf bytes.Buffer
		if err := report.RegionChart(&buf, fc); err != nil {
			return 0, nil, fmt.Errorf("chart: %w", err)
		}
		if err := fsutil.WriteFileAtomic(fsys, *chartPath, buf.Bytes()); err != nil {
			return 0, nil, err
		}
		outputs = append(outputs, *chartPath)
	}
	return len(fc.Features), outputs, nil
}
