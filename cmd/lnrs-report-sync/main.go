// Command lnrs-report-sync copies the wet woodland and region areas from the
// LNRS regional summary report onto the region features.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/regions"
	"github.com/wetwoodland/webmap/internal/version"
)

var (
	regionsPath = flag.String("regions", "docs/lnrs_regions.geojson", "LNRS regions GeoJSON")
	reportPath  = flag.String("report", "", "regional summary report as text (required)")
	output      = flag.String("output", "", "output GeoJSON (defaults to overwriting -regions)")

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
	if *reportPath == "" {
		log.Fatal("-report is required")
	}
	if *output == "" {
		*output = *regionsPath
	}

	session, err := catalog.Begin(*catalogPath, "lnrs-report-sync", catalog.FlagParams(flag.CommandLine))
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	n, err := run(fsutil.OSFileSystem{})
	if err == nil {
		err = session.Outputs(*output)
	}
	if endErr := session.End(n, err); endErr != nil {
		log.Printf("catalog: %v", endErr)
	}
	if err != nil {
		log.Fatalf("lnrs-report-sync: %v", err)
	}
}

func run(fsys fsutil.FileSystem) (int, error) {
	f, err := fsys.Open(*reportPath)
	if err != nil {
		return 0, fmt.Errorf("open report %s: %w", *reportPath, err)
	}
	defer f.Close()
	rows, err := regions.ParseReport(f)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no LNRS rows found in %s", *reportPath)
	}

	fc, err := regions.Load(fsys, *regionsPath)
	if err != nil {
		return 0, err
	}
	updated := regions.ApplyReport(fc, rows)
	monitoring.Logf("matched %d of %d regions against %d report rows", updated, len(fc.Features), len(rows))
	if err := regions.Save(fsys, *output, fc); err != nil {
		return 0, err
	}
	return updated, nil
}
