// Command lasview serves the LAS files in a data directory over HTTP: header
// and point JSON, statistics, charts and a catalog of decode runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/lasview/internal/api"
	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/config"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dataDir     = flag.String("data-dir", ".", "Directory holding the .las files to serve")
	configPath  = flag.String("config", "", "JSON config file (default: built-in defaults)")
	catalogPath = flag.String("catalog", "", "sqlite catalog of decode runs (empty disables /api/runs)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("lasview", version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if err := serve(); err != nil {
		log.Fatalf("lasview: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

func serve() error {
	info, err := os.Stat(*dataDir)
	if err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", *dataDir)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var cat *catalog.Catalog
	if *catalogPath != "" {
		if cat, err = catalog.Open(*catalogPath); err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer cat.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("lasview %s", version.String())
	return api.NewServer(fsutil.OSFileSystem{}, *dataDir, cfg, cat).ListenAndServe(ctx, *listen)
}
