package gbif

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
)

// BackboneClient resolves scientific names against the GBIF taxonomic
// backbone. It implements domain.NameResolver.
type BackboneClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBackboneClient creates a taxonomic backbone client.
func NewBackboneClient(baseURL string, timeout time.Duration, logger *slog.Logger) *BackboneClient {
	return &BackboneClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// matchResponse is the GBIF species/match API response.
type matchResponse struct {
	UsageKey      int64  `json:"usageKey"`
	CanonicalName string `json:"canonicalName"`
	Rank          string `json:"rank"`
	Confidence    int    `json:"confidence"`
	MatchType     string `json:"matchType"` // EXACT, FUZZY, HIGHERRANK, NONE
}

// Resolve looks up a scientific name. A NONE match type is not an error; it
// comes back as an unmatched TaxonMatch so the taxonomy check can state why.
func (c *BackboneClient) Resolve(ctx context.Context, name string) (domain.TaxonMatch, error) {
	params := url.Values{"name": {name}}
	u := c.baseURL + "/species/match?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.TaxonMatch{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TaxonMatch{}, fmt.Errorf("backbone match request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.TaxonMatch{}, fmt.Errorf("gbif backbone API error: status %d: %s", resp.StatusCode, body)
	}

	var match matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		return domain.TaxonMatch{}, fmt.Errorf("decode match response: %w", err)
	}

	return domain.TaxonMatch{
		Matched:       match.MatchType != "" && match.MatchType != "NONE",
		UsageKey:      match.UsageKey,
		CanonicalName: match.CanonicalName,
		MatchType:     match.MatchType,
		Confidence:    match.Confidence,
		Rank:          match.Rank,
	}, nil
}
