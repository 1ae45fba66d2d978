package domain

import (
	"context"
	"fmt"
	"strings"
)

// Check names as they appear in outcomes, reports, and metrics labels.
const (
	CheckNormalization       = "normalization"
	CheckCoordinatePrecision = "coordinate_precision"
	CheckEventDate           = "event_date"
	CheckTaxonomy            = "taxonomy"
	CheckGeoreference        = "georeference"
)

// Check is a single curation rule. The pipeline holds an ordered slice of
// checks and is agnostic to their number; outcomes of one check never depend
// on another's.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, rec NormalizedRecord) Outcome
}

func pass(check string) Outcome {
	return Outcome{Check: check, Passed: true}
}

func fail(check, format string, args ...any) Outcome {
	return Outcome{Check: check, Reason: fmt.Sprintf(format, args...)}
}

// Fractional-digit bounds for decimal-degree coordinates. Fewer than 3
// digits means precision coarser than ~100 m; more than 8 is treated as
// spurious false-precision.
const (
	minPrecisionDigits = 3
	maxPrecisionDigits = 8
)

// CoordinatePrecisionCheck verifies that both coordinates, as decimal
// strings, carry between 3 and 8 fractional digits inclusive.
type CoordinatePrecisionCheck struct{}

func (CoordinatePrecisionCheck) Name() string { return CheckCoordinatePrecision }

func (c CoordinatePrecisionCheck) Evaluate(_ context.Context, rec NormalizedRecord) Outcome {
	if rec.Latitude == nil || rec.Longitude == nil {
		return fail(c.Name(), "coordinates missing")
	}
	if out, ok := c.checkDigits("latitude", rec.Latitude.Text); !ok {
		return out
	}
	if out, ok := c.checkDigits("longitude", rec.Longitude.Text); !ok {
		return out
	}
	return pass(c.Name())
}

func (c CoordinatePrecisionCheck) checkDigits(axis, text string) (Outcome, bool) {
	n := fractionalDigits(text)
	if n < minPrecisionDigits || n > maxPrecisionDigits {
		return fail(c.Name(), "%s %s has %d decimal digits, want %d-%d",
			axis, text, n, minPrecisionDigits, maxPrecisionDigits), false
	}
	return Outcome{}, true
}

// fractionalDigits counts the digits after the decimal point, ignoring any
// exponent suffix ("1.25e2" counts 2).
func fractionalDigits(text string) int {
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return 0
	}
	frac := text[dot+1:]
	if e := strings.IndexAny(frac, "eE"); e >= 0 {
		frac = frac[:e]
	}
	return len(frac)
}

// EventDateCheck verifies the event date falls inside an inclusive year
// range. The range is validated before any record is processed (see
// pipeline.RunParams); an absent date fails with a reason distinct from an
// out-of-range date.
type EventDateCheck struct {
	MinYear int
	MaxYear int
}

func (EventDateCheck) Name() string { return CheckEventDate }

func (c EventDateCheck) Evaluate(_ context.Context, rec NormalizedRecord) Outcome {
	if rec.EventDate == nil {
		return fail(c.Name(), "event date missing")
	}
	year := rec.EventDate.Year()
	if year < c.MinYear || year > c.MaxYear {
		return fail(c.Name(), "event year %d outside range %d-%d", year, c.MinYear, c.MaxYear)
	}
	return pass(c.Name())
}

// TaxonMatch is a taxonomic-backbone lookup result.
type TaxonMatch struct {
	Matched       bool
	UsageKey      int64
	CanonicalName string
	MatchType     string // EXACT, FUZZY, HIGHERRANK, or NONE
	Confidence    int    // 0-100 backbone confidence score
	Rank          string // e.g. SPECIES, SUBSPECIES, GENUS
}

// NameResolver resolves a scientific name against a taxonomic backbone.
type NameResolver interface {
	Resolve(ctx context.Context, name string) (TaxonMatch, error)
}

// speciesLevelRanks are the backbone ranks accepted as species level or finer.
var speciesLevelRanks = map[string]bool{
	"SPECIES":    true,
	"SUBSPECIES": true,
	"VARIETY":    true,
	"FORM":       true,
}

// TaxonomyCheck resolves the record's scientific name against the backbone.
// Resolver errors collapse into a failed outcome so one unreachable name
// never aborts the run.
type TaxonomyCheck struct {
	Resolver      NameResolver
	MinConfidence int
}

func (TaxonomyCheck) Name() string { return CheckTaxonomy }

func (c TaxonomyCheck) Evaluate(ctx context.Context, rec NormalizedRecord) Outcome {
	match, err := c.Resolver.Resolve(ctx, rec.ScientificName)
	if err != nil {
		return fail(c.Name(), "taxonomic lookup failed for %q: %v", rec.ScientificName, err)
	}
	if !match.Matched {
		return fail(c.Name(), "no taxonomic backbone match for %q", rec.ScientificName)
	}
	if match.Confidence < c.MinConfidence {
		return fail(c.Name(), "taxonomic match confidence %d below %d for %q",
			match.Confidence, c.MinConfidence, rec.ScientificName)
	}
	if !speciesLevelRanks[strings.ToUpper(match.Rank)] {
		return fail(c.Name(), "taxonomic rank %s coarser than species for %q",
			match.Rank, rec.ScientificName)
	}
	return pass(c.Name())
}

// GeocodingResult contains the place details returned by a reverse geocoder.
type GeocodingResult struct {
	Country     string
	Locality    string
	DisplayName string
}

// Geocoder converts coordinates to place details. Implementations own their
// retry policy for transient failures.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// GeoreferenceCheck verifies coordinate plausibility: the reverse geocoder
// must find a non-empty country or locality, and when the record states a
// country it must agree with the geocoded one (case-insensitive). Geocoder
// errors collapse into a failed outcome, same isolation as TaxonomyCheck.
type GeoreferenceCheck struct {
	Geocoder Geocoder
}

func (GeoreferenceCheck) Name() string { return CheckGeoreference }

func (c GeoreferenceCheck) Evaluate(ctx context.Context, rec NormalizedRecord) Outcome {
	if rec.Latitude == nil || rec.Longitude == nil {
		return fail(c.Name(), "coordinates missing, cannot georeference")
	}
	result, err := c.Geocoder.ReverseGeocode(ctx, rec.Latitude.Value, rec.Longitude.Value)
	if err != nil {
		return fail(c.Name(), "reverse geocoding failed at (%s, %s): %v",
			rec.Latitude.Text, rec.Longitude.Text, err)
	}
	if result.Country == "" && result.Locality == "" {
		return fail(c.Name(), "no known locality at (%s, %s)", rec.Latitude.Text, rec.Longitude.Text)
	}
	if rec.Country != "" && result.Country != "" && !strings.EqualFold(rec.Country, result.Country) {
		return fail(c.Name(), "recorded country %q does not match geocoded country %q",
			rec.Country, result.Country)
	}
	return pass(c.Name())
}
