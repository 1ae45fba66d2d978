package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/gbif-curation-service/internal/adapter/http"
	"github.com/couchcryptid/gbif-curation-service/internal/domain"
	"github.com/couchcryptid/gbif-curation-service/internal/pipeline"
)

type mockCurator struct {
	result *pipeline.RunResult
	err    error
	params pipeline.RunParams
}

func (m *mockCurator) Run(_ context.Context, params pipeline.RunParams) (*pipeline.RunResult, error) {
	m.params = params
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return m.result, m.err
}

type mockPublisher struct {
	published []domain.CuratedRecord
	err       error
}

func (m *mockPublisher) PublishCurated(_ context.Context, records []domain.CuratedRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, records...)
	return nil
}

type mockReadiness struct{ err error }

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult() *pipeline.RunResult {
	return &pipeline.RunResult{
		Curated: []domain.CuratedRecord{
			{NormalizedRecord: domain.NormalizedRecord{RecordID: "1001", ScientificName: "Bursera linanoe"}, DataSource: "GBIF"},
		},
		Rejected: []domain.RejectedRecord{
			{NormalizedRecord: domain.NormalizedRecord{RecordID: "1002"}, Failures: []domain.Outcome{
				{Check: domain.CheckCoordinatePrecision, Reason: "latitude 18.12 has 2 decimal digits, want 3-8"},
			}},
		},
		Report: domain.RunReport{
			Species: "Bursera linanoe", TotalFetched: 2, CuratedCount: 1, RejectedCount: 1,
			FailuresByCheck: map[string]int{domain.CheckCoordinatePrecision: 1},
		},
	}
}

func newTestServer(curator httpadapter.Curator, publisher httpadapter.CuratedPublisher,
	ready httpadapter.ReadinessChecker) *httpadapter.Server {
	return httpadapter.NewServer(":0", curator, publisher, ready, discardLogger())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&mockCurator{}, nil, &mockReadiness{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&mockCurator{}, nil, &mockReadiness{})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(&mockCurator{}, nil, &mockReadiness{err: errors.New("missing collaborators")})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing collaborators")
	})
}

func TestHandleRun_Success(t *testing.T) {
	curator := &mockCurator{result: sampleResult()}
	srv := newTestServer(curator, nil, &mockReadiness{})

	body := strings.NewReader(`{"species": "Bursera linanoe", "min_year": 1980, "max_year": 2020}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bursera linanoe", curator.params.Species)
	assert.Equal(t, 1980, curator.params.MinYear)

	var resp struct {
		Report     domain.RunReport `json:"report"`
		ReportText string           `json:"report_text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.TotalFetched)
	assert.Contains(t, resp.ReportText, "Curated records: 1")
}

func TestHandleRun_PublishesCurated(t *testing.T) {
	publisher := &mockPublisher{}
	srv := newTestServer(&mockCurator{result: sampleResult()}, publisher, &mockReadiness{})

	body := strings.NewReader(`{"species": "Bursera linanoe", "min_year": 1980, "max_year": 2020}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "1001", publisher.published[0].RecordID)
	assert.Contains(t, rec.Body.String(), `"published":1`)
}

// A publish failure is logged but does not fail the request; the curation
// artifacts are already complete.
func TestHandleRun_PublishFailureStillSucceeds(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("broker unreachable")}
	srv := newTestServer(&mockCurator{result: sampleResult()}, publisher, &mockReadiness{})

	body := strings.NewReader(`{"species": "Bursera linanoe", "min_year": 1980, "max_year": 2020}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"published"`)
}

func TestHandleRun_InvalidBody(t *testing.T) {
	srv := newTestServer(&mockCurator{}, nil, &mockReadiness{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestHandleRun_InvalidParams(t *testing.T) {
	srv := newTestServer(&mockCurator{}, nil, &mockReadiness{})

	body := strings.NewReader(`{"species": "x", "min_year": 2020, "max_year": 1980}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "min year 2020 exceeds max year 1980")
}

func TestHandleRun_RunError(t *testing.T) {
	srv := newTestServer(&mockCurator{err: errors.New("gbif unreachable")}, nil, &mockReadiness{})

	body := strings.NewReader(`{"species": "Bursera linanoe", "min_year": 1980, "max_year": 2020}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", body))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "gbif unreachable")
}
