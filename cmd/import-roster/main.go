// Package main provides the roster importer: it reads fighters from a YAML
// directory or manifest and upserts them into Postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/importer"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

// printSink reports what would be written without touching the database.
type printSink struct{}

func (printSink) Upsert(_ context.Context, f fighter.Fighter, order int) error {
	fmt.Printf("%3d  %-12s %-14s HP %6.1f  ATK %5.1f  DEF %5.1f\n", order, f.ID, f.Name, f.Health, f.Attack, f.Defense)
	return nil
}

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	format := flag.String("format", "dir", "source format: dir or manifest")
	source := flag.String("source", "content/fighters", "fighter directory or manifest file")
	dryRun := flag.Bool("dry-run", false, "validate and print the roster without writing")
	flag.Parse()

	var src importer.Source
	switch *format {
	case "dir":
		src = importer.NewDirSource()
	case "manifest":
		src = importer.NewManifestSource()
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (supported: dir, manifest)\n", *format)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.Logging, "import-roster")
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	start := time.Now()

	var sink importer.Sink = printSink{}
	if !*dryRun {
		if err := cfg.ValidateDatabase(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid database config: %v\n", err)
			os.Exit(1)
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connecting to database: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()
		sink = postgres.NewFighterRepository(pool.DB())
	}

	n, err := importer.New(src, sink, logger).Run(ctx, *source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error after %d fighters: %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("imported %d fighters in %s\n", n, time.Since(start).Round(time.Millisecond))
}
