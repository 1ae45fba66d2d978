// Command curate performs one curation run from the command line: it fetches
// every GBIF occurrence record for a species, validates and enriches the
// records, and writes the curated table, the rejected table, and the
// provenance report next to each other in the output directory.
//
// Usage:
//
//	go run ./cmd/curate -species "Bursera linanoe" -min-year 1980 -max-year 2020 -out ./data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/couchcryptid/gbif-curation-service/internal/adapter/csvfile"
	"github.com/couchcryptid/gbif-curation-service/internal/adapter/gbif"
	"github.com/couchcryptid/gbif-curation-service/internal/adapter/nominatim"
	"github.com/couchcryptid/gbif-curation-service/internal/config"
	"github.com/couchcryptid/gbif-curation-service/internal/observability"
	"github.com/couchcryptid/gbif-curation-service/internal/pipeline"
)

func main() {
	species := flag.String("species", "", "scientific name to curate (required)")
	minYear := flag.Int("min-year", 0, "minimum event year, inclusive (required)")
	maxYear := flag.Int("max-year", 0, "maximum event year, inclusive (required)")
	outDir := flag.String("out", ".", "output directory for CSV tables and the report")
	flag.Parse()

	params := pipeline.RunParams{Species: *species, MinYear: *minYear, MaxYear: *maxYear}
	if err := params.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid parameters: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(params, *outDir); err != nil {
		fmt.Fprintf(os.Stderr, "curation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(params pipeline.RunParams, outDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := gbif.NewClient(cfg.GBIFBaseURL, cfg.GBIFPageSize, cfg.GBIFTimeout, logger)
	resolver := gbif.NewBackboneClient(cfg.GBIFBaseURL, cfg.GBIFTimeout, logger)
	geocoder := nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent,
			cfg.NominatimTimeout, cfg.NominatimMaxAttempts, metrics, logger),
		cfg.GeocodeCacheSize, metrics)

	runner := pipeline.New(fetcher, resolver, geocoder,
		cfg.DataSourceTag, cfg.TaxonMinConfidence, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, params)
	if err != nil {
		return err
	}

	prefix := strings.ReplaceAll(params.Species, " ", "_")
	curatedPath := filepath.Join(outDir, prefix+"_gbif_curated_data.csv")
	rejectedPath := filepath.Join(outDir, prefix+"_gbif_rejected_data.csv")
	reportPath := filepath.Join(outDir, prefix+"_gbif_report.txt")

	if err := csvfile.WriteCurated(curatedPath, result.Curated); err != nil {
		return err
	}
	if err := csvfile.WriteRejected(rejectedPath, result.Rejected); err != nil {
		return err
	}
	report := result.Report.Render()
	if err := csvfile.WriteReport(reportPath, report); err != nil {
		return err
	}

	fmt.Print(report)
	fmt.Printf("Curated data for %s written to %s\n", params.Species, outDir)
	return nil
}
