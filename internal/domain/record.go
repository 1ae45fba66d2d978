package domain

import (
	"encoding/json"
	"time"
)

// RawRecord is an occurrence record as returned by the GBIF search API.
// json.Number keeps the coordinate fields as their original decimal text,
// which the precision check needs.
type RawRecord struct {
	Key              json.Number `json:"key"`
	Species          string      `json:"species"`
	ScientificName   string      `json:"scientificName"`
	DecimalLatitude  json.Number `json:"decimalLatitude"`
	DecimalLongitude json.Number `json:"decimalLongitude"`
	Country          string      `json:"country"`
	Locality         string      `json:"locality"`
	EventDate        string      `json:"eventDate"`
	BasisOfRecord    string      `json:"basisOfRecord"`
	InstitutionCode  string      `json:"institutionCode"`
	IdentifiedBy     string      `json:"identifiedBy"`
}

// Coordinate is a parsed decimal-degree value plus the decimal text it was
// parsed from.
type Coordinate struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// NormalizedRecord is an occurrence record with typed fields. Immutable once
// built; coordinates and event date are nil when the source field was absent.
type NormalizedRecord struct {
	RecordID        string      `json:"record_id"`
	ScientificName  string      `json:"scientific_name"`
	Latitude        *Coordinate `json:"latitude,omitempty"`
	Longitude       *Coordinate `json:"longitude,omitempty"`
	EventDate       *time.Time  `json:"event_date,omitempty"`
	Country         string      `json:"country,omitempty"`
	Locality        string      `json:"locality,omitempty"`
	BasisOfRecord   string      `json:"basis_of_record,omitempty"`
	InstitutionCode string      `json:"institution_code,omitempty"`
}

// Outcome is the result of applying one check to one record.
type Outcome struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// CuratedRecord is a normalized record that passed every check, tagged with
// its data-source provenance.
type CuratedRecord struct {
	NormalizedRecord
	DataSource  string    `json:"data_source"`
	ProcessedAt time.Time `json:"processed_at"`
}

// RejectedRecord is a normalized record that failed at least one check (or
// normalization itself). Failures holds only the failing outcomes.
type RejectedRecord struct {
	NormalizedRecord
	Failures []Outcome `json:"failures"`
}

// RunReport holds the aggregate statistics of one curation run.
// CuratedCount + RejectedCount always equals TotalFetched.
type RunReport struct {
	Species         string         `json:"species"`
	QueryURL        string         `json:"query_url"`
	TotalFetched    int            `json:"total_fetched"`
	CuratedCount    int            `json:"curated_count"`
	RejectedCount   int            `json:"rejected_count"`
	FailuresByCheck map[string]int `json:"failures_by_check"`
}
