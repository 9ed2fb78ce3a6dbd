package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/girubato/broadband-data-explorer/internal/ingest"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CLI flags
var (
	configPath = flag.String("config", "", "Path to a YAML ingest config (optional)")
	fccDir     = flag.String("fcc-dir", "", "Directory of FCC coverage archives (overrides config)")
	censusDir  = flag.String("census-dir", "", "Directory holding the census blocks archive (overrides config)")
	dsn        = flag.String("dsn", "", "Postgres DSN (overrides config / env DATABASE_URL)")
	dryRun     = flag.Bool("dry-run", false, "Classify and list the planned imports; no DB writes")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	cfg, err := ingest.LoadConfig(*configPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	if *fccDir != "" {
		cfg.FCCDataDir = *fccDir
	}
	if *censusDir != "" {
		cfg.CensusDataDir = *censusDir
	}
	if *dsn != "" {
		cfg.DatabaseURL = *dsn
	}

	if cfg.FCCDataDir == "" && cfg.CensusDataDir == "" {
		fatalf("nothing to ingest: set -fcc-dir and/or -census-dir (or a config file)")
	}

	if *dryRun {
		if err := printPlan(cfg); err != nil {
			fatalf("%v", err)
		}
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if cfg.DatabaseURL == "" {
		fatalf("-dsn not provided and DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		fatalf("connect: %v", err)
	}

	sum, err := ingest.Run(db, cfg)
	if err != nil {
		fatalf("ingest run %s aborted: %v", sum.RunID, err)
	}

	printSummary(sum)
	if len(sum.Failures) > 0 {
		os.Exit(1)
	}
}

func printPlan(cfg ingest.Config) error {
	fmt.Println("Plan preview:")

	if cfg.CensusDataDir != "" {
		archive, err := ingest.FindBlocksArchive(cfg.CensusDataDir)
		if err != nil {
			fmt.Printf("  Census blocks: %v\n", err)
		} else {
			fmt.Printf("  Census blocks: replace from %s\n", filepath.Base(archive))
		}
	}

	files, err := ingest.DiscoverCoverageFiles(cfg.FCCDataDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		name := filepath.Base(f)
		if tech, ok := ingest.Classify(name); ok {
			fmt.Printf("  %s -> %s (%d)\n", name, tech.Name, tech.Code)
		} else {
			fmt.Printf("  %s -> skipped (unrecognized)\n", name)
		}
	}
	fmt.Printf("  %d coverage archives found\n", len(files))
	return nil
}

func printSummary(sum ingest.Summary) {
	fmt.Printf("Run %s:\n", sum.RunID)
	fmt.Printf("  Census blocks loaded: %d (%d features dropped)\n", sum.BlocksLoaded, sum.BlocksDropped)
	fmt.Printf("  Providers merged:     %d\n", sum.ProvidersMerged)
	fmt.Printf("  Coverage merged:      %d\n", sum.RecordsMerged)
	fmt.Printf("  Rows skipped:         %d\n", sum.RowsSkipped)
	for _, name := range sum.FilesSkipped {
		fmt.Printf("  Skipped (unrecognized): %s\n", name)
	}
	for _, f := range sum.Failures {
		fmt.Printf("  FAILED %s: %v\n", f.File, f.Err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
