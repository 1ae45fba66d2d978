// Package pipeline orchestrates one curation run: fetch occurrence records,
// normalize and validate each one, aggregate accept/reject verdicts, enrich
// accepted records, and build the run report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
	"github.com/couchcryptid/gbif-curation-service/internal/observability"
)

// Fetcher retrieves all raw occurrence records for a species, plus the public
// query URL recorded in the report. A fetcher error aborts the whole run; it
// is the only error class not converted into a per-record rejection.
type Fetcher interface {
	FetchOccurrences(ctx context.Context, species string) ([]domain.RawRecord, string, error)
}

// RunParams are the caller-supplied parameters of one curation run.
type RunParams struct {
	Species string `json:"species"`
	MinYear int    `json:"min_year"`
	MaxYear int    `json:"max_year"`
}

// Validate reports configuration errors. It runs before any fetch so an
// invalid year range or empty species name never produces partial output.
func (p RunParams) Validate() error {
	if strings.TrimSpace(p.Species) == "" {
		return errors.New("species name is required")
	}
	if p.MinYear > p.MaxYear {
		return fmt.Errorf("min year %d exceeds max year %d", p.MinYear, p.MaxYear)
	}
	return nil
}

// RunResult holds the three artifacts of a run: the curated set, the rejected
// set, and the report. The caller owns persistence.
type RunResult struct {
	Params   RunParams
	Curated  []domain.CuratedRecord
	Rejected []domain.RejectedRecord
	Report   domain.RunReport
}

// Runner executes curation runs. Records are processed sequentially so the
// curated and rejected sets, and therefore the report, are reproducible
// run-over-run given identical inputs.
type Runner struct {
	fetcher       Fetcher
	resolver      domain.NameResolver
	geocoder      domain.Geocoder
	dataSource    string
	minConfidence int
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// New creates a Runner with the given collaborators and observability.
func New(f Fetcher, resolver domain.NameResolver, geocoder domain.Geocoder,
	dataSource string, minConfidence int,
	logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		fetcher:       f,
		resolver:      resolver,
		geocoder:      geocoder,
		dataSource:    dataSource,
		minConfidence: minConfidence,
		logger:        logger,
		metrics:       metrics,
	}
}

// CheckReadiness returns nil when the runner has all collaborators wired.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if r.fetcher == nil || r.resolver == nil || r.geocoder == nil {
		return errors.New("curation runner is missing collaborators")
	}
	return nil
}

// Run executes one curation run. Every fetched record lands in exactly one of
// the curated or rejected sets; per-record failures never abort the run.
func (r *Runner) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run parameters: %w", err)
	}

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "species", params.Species)
	start := time.Now()

	result, err := r.run(ctx, params, logger)
	r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	r.metrics.RunsTotal.WithLabelValues("success").Inc()

	logger.Info("run complete",
		"fetched", result.Report.TotalFetched,
		"curated", result.Report.CuratedCount,
		"rejected", result.Report.RejectedCount,
		"duration", time.Since(start),
	)
	return result, nil
}

func (r *Runner) run(ctx context.Context, params RunParams, logger *slog.Logger) (*RunResult, error) {
	raws, queryURL, err := r.fetcher.FetchOccurrences(ctx, params.Species)
	if err != nil {
		return nil, fmt.Errorf("fetch occurrences: %w", err)
	}
	raws = dedupe(raws)
	r.metrics.RecordsFetched.Add(float64(len(raws)))
	logger.Info("records fetched", "count", len(raws), "query_url", queryURL)

	checks := []domain.Check{
		domain.CoordinatePrecisionCheck{},
		domain.EventDateCheck{MinYear: params.MinYear, MaxYear: params.MaxYear},
		domain.TaxonomyCheck{Resolver: r.resolver, MinConfidence: r.minConfidence},
		domain.GeoreferenceCheck{Geocoder: r.geocoder},
	}

	result := &RunResult{
		Params:   params,
		Curated:  make([]domain.CuratedRecord, 0, len(raws)),
		Rejected: make([]domain.RejectedRecord, 0),
	}
	failuresByCheck := make(map[string]int)

	for i, raw := range raws {
		rec, err := domain.NormalizeRecord(raw)
		if err != nil {
			rec.RecordID = recordID(raw, i)
			rec.ScientificName = raw.Species
			outcome := domain.Outcome{Check: domain.CheckNormalization, Reason: err.Error()}
			r.reject(result, failuresByCheck, rec, []domain.Outcome{outcome}, logger)
			continue
		}
		if rec.RecordID == "" {
			rec.RecordID = recordID(raw, i)
		}

		// All checks run for every record; a record may fail several.
		var failing []domain.Outcome
		for _, check := range checks {
			outcome := check.Evaluate(ctx, rec)
			if !outcome.Passed {
				failing = append(failing, outcome)
			}
		}

		if len(failing) > 0 {
			r.reject(result, failuresByCheck, rec, failing, logger)
			continue
		}

		result.Curated = append(result.Curated, domain.EnrichCurated(rec, r.dataSource))
		r.metrics.RecordsCurated.Inc()
	}

	result.Report = domain.RunReport{
		Species:         params.Species,
		QueryURL:        queryURL,
		TotalFetched:    len(raws),
		CuratedCount:    len(result.Curated),
		RejectedCount:   len(result.Rejected),
		FailuresByCheck: failuresByCheck,
	}
	return result, nil
}

func (r *Runner) reject(result *RunResult, failuresByCheck map[string]int,
	rec domain.NormalizedRecord, failing []domain.Outcome, logger *slog.Logger) {
	for _, outcome := range failing {
		failuresByCheck[outcome.Check]++
		r.metrics.CheckFailures.WithLabelValues(outcome.Check).Inc()
	}
	result.Rejected = append(result.Rejected, domain.RejectedRecord{
		NormalizedRecord: rec,
		Failures:         failing,
	})
	r.metrics.RecordsRejected.Inc()
	logger.Debug("record rejected", "record_id", rec.RecordID, "failures", len(failing))
}

// dedupe drops exact re-occurrences of a record ID, keeping the first. GBIF
// paging occasionally repeats a record across page boundaries.
func dedupe(raws []domain.RawRecord) []domain.RawRecord {
	seen := make(map[string]bool, len(raws))
	out := raws[:0]
	for _, raw := range raws {
		id := raw.Key.String()
		if id != "" && seen[id] {
			continue
		}
		if id != "" {
			seen[id] = true
		}
		out = append(out, raw)
	}
	return out
}

// recordID falls back to a positional ID when the source record carries no key.
func recordID(raw domain.RawRecord, index int) string {
	if id := raw.Key.String(); id != "" {
		return id
	}
	return fmt.Sprintf("record-%d", index)
}
