// Command serve previews the generated docs directory over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wetwoodland/webmap/internal/serve"
	"github.com/wetwoodland/webmap/internal/version"
)

var (
	dir         = flag.String("dir", "docs", "directory to serve")
	listen      = flag.String("listen", ":8000", "listen address")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if st, err := os.Stat(*dir); err != nil || !st.IsDir() {
		log.Fatalf("%s is not a directory", *dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve.ListenAndServe(ctx, *listen, serve.NewRouter(*dir)); err != nil {
		log.Fatalf("serve: %v", err)
	}
	log.Print("server stopped")
}
