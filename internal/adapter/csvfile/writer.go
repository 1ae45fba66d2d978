// Package csvfile persists run artifacts as CSV tables and a text report.
// The pipeline itself does no file I/O; this is the caller-side persistence
// used by cmd/curate.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
)

var curatedHeader = []string{
	"recordId", "scientificName", "decimalLatitude", "decimalLongitude",
	"eventDate", "country", "locality", "basisOfRecord", "institutionCode",
	"dataSource",
}

var rejectedHeader = []string{
	"recordId", "scientificName", "decimalLatitude", "decimalLongitude",
	"eventDate", "country", "locality", "basisOfRecord", "institutionCode",
	"failedChecks", "reasons",
}

// WriteCurated writes the curated table. Rows appear in pipeline order, so
// identical runs produce byte-identical files.
func WriteCurated(path string, records []domain.CuratedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, append(baseColumns(rec.NormalizedRecord), rec.DataSource))
	}
	return writeTable(path, curatedHeader, rows)
}

// WriteRejected writes the rejected table, one row per record with its
// failing checks and reasons joined for traceability.
func WriteRejected(path string, records []domain.RejectedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		checks := make([]string, 0, len(rec.Failures))
		reasons := make([]string, 0, len(rec.Failures))
		for _, f := range rec.Failures {
			checks = append(checks, f.Check)
			reasons = append(reasons, f.Reason)
		}
		row := append(baseColumns(rec.NormalizedRecord),
			strings.Join(checks, ";"), strings.Join(reasons, "; "))
		rows = append(rows, row)
	}
	return writeTable(path, rejectedHeader, rows)
}

// WriteReport writes the rendered run report.
func WriteReport(path, report string) error {
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func baseColumns(rec domain.NormalizedRecord) []string {
	var lat, lon, date string
	if rec.Latitude != nil {
		lat = rec.Latitude.Text
	}
	if rec.Longitude != nil {
		lon = rec.Longitude.Text
	}
	if rec.EventDate != nil {
		date = rec.EventDate.Format("2006-01-02")
	}
	return []string{
		rec.RecordID, rec.ScientificName, lat, lon, date,
		rec.Country, rec.Locality, rec.BasisOfRecord, rec.InstitutionCode,
	}
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
