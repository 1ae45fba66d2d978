// Package nominatim implements reverse geocoding against the OpenStreetMap
// Nominatim API, with bounded retry on transient errors and an in-memory
// LRU cache decorator.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
	"github.com/couchcryptid/gbif-curation-service/internal/observability"
)

// Client implements domain.Geocoder using the Nominatim reverse API.
// Transient failures (network errors, 429, 5xx) are retried with exponential
// backoff up to maxAttempts; the reverse geocode is the one network call in
// the pipeline where transient-failure retry is meaningful.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	maxAttempts int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a Nominatim reverse-geocoding client. Nominatim's usage
// policy requires an identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, maxAttempts int,
	metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		metrics:     metrics,
		logger:      logger,
	}
}

// ReverseGeocode converts coordinates to place details, retrying transient
// errors before giving up.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Backoff starts at 500ms and doubles per retry, capped at 5s. Nominatim
	// rate-limits aggressively; short retries just burn the quota faster.
	backoff := 500 * time.Millisecond
	maxBackoff := 5 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, retryable, err := c.doRequest(ctx, lat, lon)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable || attempt == c.maxAttempts {
			break
		}

		c.metrics.GeocodeRetries.Inc()
		c.logger.Warn("reverse geocode retrying",
			"attempt", attempt, "lat", lat, "lon", lon, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return domain.GeocodingResult{}, ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return domain.GeocodingResult{}, lastErr
}

// reverseResponse is the Nominatim jsonv2 reverse response.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Country string `json:"country"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

// doRequest performs one reverse lookup. The second return value reports
// whether the failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, lat, lon float64) (domain.GeocodingResult, bool, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}
	u := c.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.GeocodingResult{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, true, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, true, fmt.Errorf("nominatim API error: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var rev reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rev); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, false, fmt.Errorf("decode reverse response: %w", err)
	}

	result := domain.GeocodingResult{
		Country:     rev.Address.Country,
		Locality:    firstNonEmpty(rev.Address.City, rev.Address.Town, rev.Address.Village, rev.Address.Hamlet, rev.Address.County, rev.Address.State),
		DisplayName: rev.DisplayName,
	}
	if result.Country == "" && result.Locality == "" {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
