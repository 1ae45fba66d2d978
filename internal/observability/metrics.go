package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// curation pipeline.
type Metrics struct {
	RecordsFetched  prometheus.Counter
	RecordsCurated  prometheus.Counter
	RecordsRejected prometheus.Counter
	CheckFailures   *prometheus.CounterVec // label: check
	RunsTotal       *prometheus.CounterVec // label: outcome={success,error}
	RunDuration     prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // label: outcome={success,error,empty}
	GeocodeRetries     prometheus.Counter
	GeocodeCache       *prometheus.CounterVec // label: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "records_fetched_total",
			Help:      "Total occurrence records fetched from GBIF.",
		}),
		RecordsCurated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "records_curated_total",
			Help:      "Total records that passed every check.",
		}),
		RecordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "records_rejected_total",
			Help:      "Total records rejected by at least one check.",
		}),
		CheckFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "check_failures_total",
			Help:      "Check failures by check name.",
		}, []string{"check"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "runs_total",
			Help:      "Curation runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gbif_curation",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-validate-curate run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "geocode_requests_total",
			Help:      "Reverse-geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "geocode_retries_total",
			Help:      "Reverse-geocoding attempts retried after transient errors.",
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gbif_curation",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gbif_curation",
			Name:      "geocode_api_duration_seconds",
			Help:      "Reverse-geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.RecordsFetched,
		m.RecordsCurated,
		m.RecordsRejected,
		m.CheckFailures,
		m.RunsTotal,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeRetries,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsFetched:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "records_fetched_total"}),
		RecordsCurated:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "records_curated_total"}),
		RecordsRejected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "records_rejected_total"}),
		CheckFailures:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "check_failures_total"}, []string{"check"}),
		RunsTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gbif_curation", Name: "run_duration_seconds"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeRetries:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "geocode_retries_total"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gbif_curation", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gbif_curation", Name: "geocode_api_duration_seconds"}),
	}
}
