package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// Run parameters (species name, year range) are not configuration; they
// arrive per run via CLI flags or the HTTP API.
type Config struct {
	GBIFBaseURL  string
	GBIFPageSize int
	GBIFTimeout  time.Duration

	NominatimBaseURL     string
	NominatimUserAgent   string
	NominatimTimeout     time.Duration
	NominatimMaxAttempts int
	GeocodeCacheSize     int

	TaxonMinConfidence int
	DataSourceTag      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing of curated records (optional).
	KafkaBrokers      []string
	KafkaCuratedTopic string
	KafkaEnabled      bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	gbifTimeout, err := parsePositiveDuration("GBIF_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parsePositiveDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	// The GBIF search API caps the page size at 300.
	pageSize, err := parseBoundedInt("GBIF_PAGE_SIZE", 300, 1, 300)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseBoundedInt("NOMINATIM_MAX_ATTEMPTS", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseBoundedInt("GEOCODE_CACHE_SIZE", 1000, 1, 1_000_000)
	if err != nil {
		return nil, err
	}
	minConfidence, err := parseBoundedInt("TAXON_MIN_CONFIDENCE", 80, 0, 100)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		GBIFBaseURL:  envOrDefault("GBIF_BASE_URL", "https://api.gbif.org/v1"),
		GBIFPageSize: pageSize,
		GBIFTimeout:  gbifTimeout,

		NominatimBaseURL:     envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent:   envOrDefault("NOMINATIM_USER_AGENT", "gbif-curation-service/1.0"),
		NominatimTimeout:     nominatimTimeout,
		NominatimMaxAttempts: maxAttempts,
		GeocodeCacheSize:     cacheSize,

		TaxonMinConfidence: minConfidence,
		DataSourceTag:      envOrDefault("DATA_SOURCE_TAG", "GBIF"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:      brokers,
		KafkaCuratedTopic: envOrDefault("KAFKA_CURATED_TOPIC", "curated-occurrences"),
		KafkaEnabled:      kafkaEnabled,
	}

	if cfg.GBIFBaseURL == "" {
		return nil, errors.New("GBIF_BASE_URL is required")
	}
	if cfg.NominatimBaseURL == "" {
		return nil, errors.New("NOMINATIM_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBoundedInt(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: want integer in [%d, %d]", key, min, max)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
