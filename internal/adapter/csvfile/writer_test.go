package csvfile

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
)

func normalized() domain.NormalizedRecord {
	lat := domain.Coordinate{Value: 18.123, Text: "18.123"}
	lon := domain.Coordinate{Value: -99.456, Text: "-99.456"}
	eventDate := time.Date(2010, time.May, 1, 0, 0, 0, 0, time.UTC)
	return domain.NormalizedRecord{
		RecordID:        "1001",
		ScientificName:  "Bursera linanoe",
		Latitude:        &lat,
		Longitude:       &lon,
		EventDate:       &eventDate,
		Country:         "Mexico",
		Locality:        "Taxco",
		BasisOfRecord:   "PRESERVED_SPECIMEN",
		InstitutionCode: "MEXU",
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCurated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curated.csv")
	records := []domain.CuratedRecord{
		{NormalizedRecord: normalized(), DataSource: "GBIF"},
	}
	require.NoError(t, WriteCurated(path, records))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, curatedHeader, rows[0])
	assert.Equal(t, []string{
		"1001", "Bursera linanoe", "18.123", "-99.456", "2010-05-01",
		"Mexico", "Taxco", "PRESERVED_SPECIMEN", "MEXU", "GBIF",
	}, rows[1])
}

// Coordinate columns carry the source decimal text untouched, not a
// re-formatted float.
func TestWriteCurated_CoordinateTextPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curated.csv")
	rec := normalized()
	rec.Latitude = &domain.Coordinate{Value: 18.12, Text: "18.120"}
	require.NoError(t, WriteCurated(path, []domain.CuratedRecord{{NormalizedRecord: rec, DataSource: "GBIF"}}))

	rows := readCSV(t, path)
	assert.Equal(t, "18.120", rows[1][2])
}

func TestWriteRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejected.csv")
	rec := normalized()
	rec.RecordID = "1002"
	records := []domain.RejectedRecord{
		{NormalizedRecord: rec, Failures: []domain.Outcome{
			{Check: domain.CheckCoordinatePrecision, Reason: "latitude 18.12 has 2 decimal digits, want 3-8"},
			{Check: domain.CheckEventDate, Reason: "event year 1975 outside range 1980-2020"},
		}},
	}
	require.NoError(t, WriteRejected(path, records))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, rejectedHeader, rows[0])
	assert.Equal(t, "coordinate_precision;event_date", rows[1][9])
	assert.True(t, strings.Contains(rows[1][10], "2 decimal digits"))
	assert.True(t, strings.Contains(rows[1][10], "event year 1975"))
}

func TestWriteCurated_MissingOptionalFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curated.csv")
	rec := domain.NormalizedRecord{RecordID: "1", ScientificName: "X y"}
	require.NoError(t, WriteCurated(path, []domain.CuratedRecord{{NormalizedRecord: rec, DataSource: "GBIF"}}))

	rows := readCSV(t, path)
	assert.Equal(t, []string{"1", "X y", "", "", "", "", "", "", "", "GBIF"}, rows[1])
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	report := "Species: Bursera linanoe\nTotal records fetched: 3\n"
	require.NoError(t, WriteReport(path, report))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, report, string(got))
}

// Writing the same records twice produces byte-identical files.
func TestWriteCurated_Deterministic(t *testing.T) {
	dir := t.TempDir()
	records := []domain.CuratedRecord{
		{NormalizedRecord: normalized(), DataSource: "GBIF"},
	}

	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteCurated(first, records))
	require.NoError(t, WriteCurated(second, records))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
