// Command runs inspects the pipeline run catalog.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wetwoodland/webmap/internal/catalog"
	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/version"
)

var (
	catalogPath = flag.String("catalog", "pipeline.db", "SQLite run catalog")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	err := catalog.RunCommand(flag.Args(), *catalogPath, fsutil.OSFileSystem{}, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrUsage), errors.Is(err, catalog.ErrDrift):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	default:
		log.Fatalf("runs: %v", err)
	}
}
