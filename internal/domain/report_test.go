package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestRunReport_Render(t *testing.T) {
	report := RunReport{
		Species:       "Bursera linanoe",
		QueryURL:      "https://www.gbif.org/occurrence/search?scientificName=Bursera%20linanoe",
		TotalFetched:  3,
		CuratedCount:  1,
		RejectedCount: 2,
		FailuresByCheck: map[string]int{
			CheckEventDate:           1,
			CheckCoordinatePrecision: 1,
		},
	}

	want := "Species: Bursera linanoe\n" +
		"Query URL: https://www.gbif.org/occurrence/search?scientificName=Bursera%20linanoe\n" +
		"Total records fetched: 3\n" +
		"Curated records: 1\n" +
		"Rejected records: 2\n" +
		"Failures by check:\n" +
		"  coordinate_precision: 1\n" +
		"  event_date: 1\n"

	assert.Equal(t, want, report.Render())
}

func TestRunReport_RenderIsStable(t *testing.T) {
	report := RunReport{
		Species: "Quercus robur",
		FailuresByCheck: map[string]int{
			CheckTaxonomy: 2, CheckGeoreference: 1, CheckEventDate: 4, CheckNormalization: 1,
		},
	}
	first := report.Render()
	for range 10 {
		assert.Equal(t, first, report.Render())
	}
}

func TestRunReport_RenderNoFailures(t *testing.T) {
	out := RunReport{Species: "Quercus robur", TotalFetched: 2, CuratedCount: 2}.Render()
	assert.Contains(t, out, "Failures by check:\n  none\n")
}

func TestEnrichCurated(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	rec := NormalizedRecord{RecordID: "123", ScientificName: "Bursera linanoe"}
	curated := EnrichCurated(rec, "GBIF")

	assert.Equal(t, "GBIF", curated.DataSource)
	assert.Equal(t, fakeClock.Now().UTC(), curated.ProcessedAt)
	assert.Equal(t, rec, curated.NormalizedRecord)
}
