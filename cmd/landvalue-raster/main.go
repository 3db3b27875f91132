// Command landvalue-raster burns Agricultural Land Classification parcels
// onto a reference raster's grid as grade buckets.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/config"
	"github.com/wetwoodland/webmap/internal/landclass"
	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/raster/gdalio"
	"github.com/wetwoodland/webmap/internal/version"
)

// defaults supplies flag defaults; -config values and explicit flags override them.
var defaults = config.EmptyPipelineConfig()

var (
	shapefile  = flag.String("shapefile", "", "ALC parcels shapefile (required)")
	reference  = flag.String("reference", "", "raster whose grid the output matches (required)")
	output     = flag.String("output", "landvalue.tif", "output GeoTIFF")
	gradeField = flag.String("grade-field", defaults.GetGradeField(), "attribute holding the ALC grade")

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
	if *shapefile == "" || *reference == "" {
		log.Fatal("-shapefile and -reference are required")
	}

	session, err := catalog.Begin(*catalogPath, "landvalue-raster", catalog.FlagParams(flag.CommandLine))
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	n, err := run()
	if err == nil {
		err = session.Outputs(*output)
	}
	if endErr := session.End(n, err); endErr != nil {
		log.Printf("catalog: %v", endErr)
	}
	if err != nil {
		log.Fatalf("landvalue-raster: %v", err)
	}
}

func run() (int, error) {
	ref, err := gdalio.Open(*reference)
	if err != nil {
		return 0, err
	}
	parcels, err := landclass.ReadShapefile(*shapefile, *gradeField, ref.CRS)
	if err != nil {
		return 0, err
	}
	out, err := landclass.Rasterize(ref, parcels)
	if err != nil {
		return 0, err
	}
	if err := gdalio.WriteGrid(*output, out, gdalio.Byte, 0); err != nil {
		return 0, err
	}
	classified := out.ValidCount()
	monitoring.Logf("wrote %s: %dx%d, %d classified cells", *output, out.Width, out.Height, classified)
	return classified, nil
}
