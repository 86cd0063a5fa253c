package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/tunogya/ecgprep/pkg/clean"
	"github.com/tunogya/ecgprep/pkg/data"
	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/store/duckdb"
)

// Config holds ingest configuration
type Config struct {
	// Data source
	Dir string
	Fs  float64

	// Cleaning
	CanonicalLead string
	Denoise       bool

	// Storage
	DuckDBPath string
}

func main() {
	cfg := parseFlags()

	log.Printf("Starting ingest from %s (fs=%.0f Hz, canonical lead %s)", cfg.Dir, cfg.Fs, cfg.CanonicalLead)

	ctx := context.Background()

	log.Println("Connecting to DuckDB...")
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	recordRepo := duckdb.NewRecordRepo(duckClient)

	provider := data.NewCSVProvider(cfg.Dir, cfg.Fs)
	records, err := provider.LoadRecords(ctx)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	log.Printf("Loaded %d records", len(records))

	cleanCfg := clean.DefaultConfig()
	cleanCfg.CanonicalLead = cfg.CanonicalLead
	cleanCfg.Denoise = cfg.Denoise

	var cleaned []*model.Record
	var samples int64
	for _, rec := range records {
		stats, err := clean.Clean(rec, cleanCfg)
		if errors.Is(err, clean.ErrNoCanonicalLead) {
			log.Printf("Warning: skipping %v", err)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to clean record %s: %v", rec.Name, err)
		}

		if stats.Swapped {
			log.Printf("Record %s: swapped channels, ch1 is now %s", rec.Name, rec.Signal[model.Ch1].Name)
		}
		cleaned = append(cleaned, rec)
		samples += int64(rec.Length)
	}

	log.Println("Storing records in DuckDB...")
	if err := recordRepo.InsertBatch(ctx, cleaned); err != nil {
		log.Fatalf("Failed to insert records: %v", err)
	}

	total, err := recordRepo.Count(ctx)
	if err != nil {
		log.Printf("Warning: failed to count records: %v", err)
	}

	log.Println("Ingest completed successfully!")
	log.Printf("Summary: %d records → %d cleaned (%s samples per channel), %d stored",
		len(records), len(cleaned), humanize.Comma(samples), total)
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Dir, "dir", "", "Directory with <record>.csv and <record>.atr.csv files")
	flag.Float64Var(&cfg.Fs, "fs", 360, "Sampling rate in Hz")
	flag.StringVar(&cfg.CanonicalLead, "lead", "MLII", "Lead that must end up in ch1")
	flag.BoolVar(&cfg.Denoise, "denoise", false, "Apply the Butterworth band pass before baseline removal")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "ecgprep.duckdb", "DuckDB file path")

	flag.Parse()

	if cfg.Dir == "" {
		fmt.Println("Usage: ingest -dir <path> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
