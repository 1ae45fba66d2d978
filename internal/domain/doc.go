// Package domain models GBIF species-occurrence records and the curation
// rules applied to them.
//
// # Data Source
//
// Occurrence records originate from the GBIF occurrence search API at
// https://api.gbif.org/v1/occurrence/search. Each record is a single
// observation of a species at a place and time, published to GBIF by
// museums, herbaria, and citizen-science platforms. The adapter layer
// fetches records page by page and hands them to the pipeline as
// [RawRecord] values.
//
// # Coordinate Conventions
//
// Coordinates are WGS-84 decimal degrees in the "decimalLatitude" and
// "decimalLongitude" fields. The original decimal text is preserved through
// normalization because the precision rule counts fractional digits:
//
//	Fewer than 3 fractional digits implies precision coarser than ~100 m,
//	unsuitable for fine-scale ecological work. More than 8 is treated as
//	spurious false-precision. Both bounds are inclusive.
//
// Values outside [-90, 90] latitude or [-180, 180] longitude are parse
// failures, not precision failures — the record never reaches the checks.
//
// # Event Dates
//
// GBIF publishes "eventDate" in several shapes: full timestamps
// ("1981-05-02T00:00:00"), plain dates ("1981-05-02"), year-month
// ("1981-05"), bare years ("1981"), and ISO ranges ("1981-05-02/1981-05-04",
// start is used). See [parseEventDate].
//
// # Taxonomic Backbone
//
// Scientific names are resolved against the GBIF backbone
// (https://api.gbif.org/v1/species/match). The backbone returns a match type
// (EXACT, FUZZY, HIGHERRANK, NONE), a confidence score on a 0–100 scale, and
// a taxonomic rank. A record passes the taxonomy check when the match
// confidence reaches the configured minimum and the rank is species level or
// finer (SPECIES, SUBSPECIES, VARIETY, FORM).
//
// # Curation Policy
//
// Every record receives one [Outcome] per check. A record is curated only
// when every outcome passed; otherwise it is rejected and keeps its failing
// outcomes for traceability. Lookup-service errors (backbone or geocoder)
// collapse into failed outcomes so that one unreachable name or rate-limited
// geocode never aborts a run.
package domain
