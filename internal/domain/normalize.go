package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalization failure reasons. These surface verbatim in rejection outcomes.
const (
	ReasonUnparseableCoordinates = "unparseable coordinates"
	ReasonUnparseableDate        = "unparseable date"
	ReasonMissingScientificName  = "missing scientific name"
)

// eventDateLayouts are the date shapes GBIF publishes, tried in order.
var eventDateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// NormalizeRecord converts a raw occurrence record into typed form.
// Pure transform. A non-nil error marks the record immediately rejected:
// unparseable or out-of-range coordinates, an unparseable date, or a missing
// scientific name. Absent coordinates and absent dates are not errors — they
// normalize to nil and are left for the checks to judge.
func NormalizeRecord(raw RawRecord) (NormalizedRecord, error) {
	name := strings.TrimSpace(raw.Species)
	if name == "" {
		name = strings.TrimSpace(raw.ScientificName)
	}
	if name == "" {
		return NormalizedRecord{}, fmt.Errorf("%s", ReasonMissingScientificName)
	}

	lat, err := parseCoordinate(raw.DecimalLatitude.String(), -90, 90)
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("%s: latitude %w", ReasonUnparseableCoordinates, err)
	}
	lon, err := parseCoordinate(raw.DecimalLongitude.String(), -180, 180)
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("%s: longitude %w", ReasonUnparseableCoordinates, err)
	}

	eventDate, err := parseEventDate(raw.EventDate)
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("%s: %w", ReasonUnparseableDate, err)
	}

	return NormalizedRecord{
		RecordID:        raw.Key.String(),
		ScientificName:  name,
		Latitude:        lat,
		Longitude:       lon,
		EventDate:       eventDate,
		Country:         strings.TrimSpace(raw.Country),
		Locality:        strings.TrimSpace(raw.Locality),
		BasisOfRecord:   raw.BasisOfRecord,
		InstitutionCode: raw.InstitutionCode,
	}, nil
}

// parseCoordinate parses a decimal-degree string, keeping the original text.
// Empty input normalizes to nil. Values outside [min, max] are parse errors.
func parseCoordinate(text string, min, max float64) (*Coordinate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a decimal degree", text)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("%q outside [%g, %g]", text, min, max)
	}
	return &Coordinate{Value: v, Text: text}, nil
}

// parseEventDate parses a GBIF eventDate string. Empty input normalizes to
// nil. Ranges ("start/end") use the start. The result is the date in UTC.
func parseEventDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	for _, layout := range eventDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		return &t, nil
	}
	return nil, fmt.Errorf("%q is not a recognized event date", s)
}
