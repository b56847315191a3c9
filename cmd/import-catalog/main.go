// Package main loads species YAML content and stores it in the PostgreSQL
// catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cory-johannsen/battlesim/internal/config"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/battlesim.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "species YAML directory (default: catalog.dir from config)")
	dryRun := flag.Bool("dry-run", false, "validate the content without writing to the database")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	dir := *sourceDir
	if dir == "" {
		dir = cfg.Catalog.Dir
	}

	start := time.Now()
	species, err := catalog.LoadDirectory(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if _, err := catalog.NewMemory(species); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("validated %d species from %s in %s\n", len(species), dir, time.Since(start).Round(time.Millisecond))
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewSpeciesRepository(pool.DB())
	if err := repo.UpsertAll(ctx, species); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d species from %s in %s\n", len(species), dir, time.Since(start).Round(time.Millisecond))
}
