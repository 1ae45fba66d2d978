// Package gbif provides clients for the GBIF occurrence search API and the
// GBIF taxonomic backbone.
package gbif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
)

// ErrNoRecords is returned when a search matches no occurrence records.
// The pipeline treats it as a fetch-level failure that aborts the run.
var ErrNoRecords = errors.New("no occurrence records found")

// maxOffset is the GBIF search API's hard pagination limit.
const maxOffset = 100_000

// Client fetches occurrence records from the GBIF search API with
// pagination. It implements pipeline.Fetcher.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a GBIF occurrence search client.
func NewClient(baseURL string, pageSize int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// searchResponse is one page of the GBIF occurrence search API.
type searchResponse struct {
	Offset       int                `json:"offset"`
	Limit        int                `json:"limit"`
	EndOfRecords bool               `json:"endOfRecords"`
	Count        int                `json:"count"`
	Results      []domain.RawRecord `json:"results"`
}

// FetchOccurrences retrieves every occurrence record for the species, paging
// through the search API until endOfRecords. The returned URL is the public
// gbif.org search page for the same query, recorded in the run report.
func (c *Client) FetchOccurrences(ctx context.Context, species string) ([]domain.RawRecord, string, error) {
	var records []domain.RawRecord

	for offset := 0; offset < maxOffset; {
		page, err := c.fetchPage(ctx, species, offset)
		if err != nil {
			return nil, "", err
		}
		records = append(records, page.Results...)
		if page.EndOfRecords || len(page.Results) == 0 {
			break
		}
		offset += len(page.Results)
	}

	if len(records) == 0 {
		return nil, "", fmt.Errorf("%w for %q", ErrNoRecords, species)
	}

	c.logger.Debug("gbif fetch complete", "species", species, "records", len(records))
	return records, PublicQueryURL(species), nil
}

func (c *Client) fetchPage(ctx context.Context, species string, offset int) (*searchResponse, error) {
	params := url.Values{
		"scientificName": {species},
		"limit":          {strconv.Itoa(c.pageSize)},
		"offset":         {strconv.Itoa(offset)},
	}
	u := c.baseURL + "/occurrence/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("occurrence search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gbif API error: status %d: %s", resp.StatusCode, body)
	}

	var page searchResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &page, nil
}

// PublicQueryURL builds the gbif.org occurrence search URL for a species,
// encoding spaces as %20 the way the GBIF portal does.
func PublicQueryURL(species string) string {
	return "https://www.gbif.org/occurrence/search?scientificName=" +
		strings.ReplaceAll(species, " ", "%20")
}
