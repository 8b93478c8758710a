package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-io/finsight/internal/app"
	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/models"
	"github.com/finsight-io/finsight/internal/services/alert"
	"github.com/finsight-io/finsight/internal/services/report"
	"github.com/finsight-io/finsight/internal/storage/reportfs"
)

// stubExtraction yields a fixed result for handler tests.
type stubExtraction struct {
	financials *models.ExtractedFinancials
	metrics    []models.StandardizedMetric
	err        error
}

func (s *stubExtraction) ExtractFinancials(ctx context.Context, path string, opts models.ExtractOptions) (*models.ExtractedFinancials, error) {
	return s.financials, s.err
}

func (s *stubExtraction) ComputeMetrics(f *models.ExtractedFinancials) []models.StandardizedMetric {
	return s.metrics
}

func newTestServer(t *testing.T, ex *stubExtraction) (*Server, *app.App) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Path = t.TempDir()
	logger := common.NewSilentLogger()

	store, err := reportfs.NewStore(logger, cfg.Storage.Path)
	require.NoError(t, err)

	alertSvc := alert.NewService(logger)
	reportSvc := report.NewService(ex, alertSvc, store, nil, logger)

	a := &app.App{
		Config:            cfg,
		Logger:            logger,
		Storage:           store,
		ExtractionService: ex,
		AlertService:      alertSvc,
		ReportService:     reportSvc,
	}
	return NewServer(a), a
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doRequest(t, srv, http.MethodPost, "/api/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleVersion(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})

	rec := doRequest(t, srv, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["version"])
}

func TestHandleConfig(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})

	rec := doRequest(t, srv, http.MethodGet, "/api/config", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["gemini_configured"])
	assert.Equal(t, "development", body["environment"])
}

func TestHandleReportAnalyze_JSON(t *testing.T) {
	ex := &stubExtraction{
		financials: &models.ExtractedFinancials{
			Revenue:      fptrServer(1000),
			NetProfit:    fptrServer(100),
			ReportPeriod: "2024-12-31",
		},
		metrics: []models.StandardizedMetric{
			{Code: models.MetricNetMargin, Name: "Net Margin", Value: 10, Unit: "%"},
		},
	}
	srv, _ := newTestServer(t, ex)

	rec := doRequest(t, srv, http.MethodPost, "/api/reports/analyze",
		[]byte(`{"path": "/data/filing.pdf"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "done", got.Status)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "2024-12-31", got.PeriodEnd)
}

func TestHandleReportAnalyze_MissingPath(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})

	rec := doRequest(t, srv, http.MethodPost, "/api/reports/analyze", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReportAnalyze_DocumentNotFound(t *testing.T) {
	ex := &stubExtraction{err: models.ErrNotFound}
	srv, _ := newTestServer(t, ex)

	rec := doRequest(t, srv, http.MethodPost, "/api/reports/analyze",
		[]byte(`{"path": "/missing.pdf"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "failed", got.Status)
}

func TestHandleReport_GetAndDelete(t *testing.T) {
	ex := &stubExtraction{financials: &models.ExtractedFinancials{}}
	srv, a := newTestServer(t, ex)

	seeded, err := a.ReportService.Analyze(context.Background(), "/seed.pdf", models.ExtractOptions{})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/"+seeded.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/reports/"+seeded.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/"+seeded.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReport_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})
	rec := doRequest(t, srv, http.MethodGet, "/api/reports/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReportList(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})

	rec := doRequest(t, srv, http.MethodGet, "/api/reports", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestHandleReportChart(t *testing.T) {
	ex := &stubExtraction{
		financials: &models.ExtractedFinancials{Revenue: fptrServer(1000), NetProfit: fptrServer(100)},
		metrics: []models.StandardizedMetric{
			{Code: models.MetricNetMargin, Name: "Net Margin", Value: 10, Unit: "%"},
		},
	}
	srv, a := newTestServer(t, ex)

	seeded, err := a.ReportService.Analyze(context.Background(), "/seed.pdf", models.ExtractOptions{})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/"+seeded.ID+"/chart.png", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}

func TestCorrelationIDHeader(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtraction{})

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "req-123", rr.Header().Get("X-Correlation-ID"))
}

func fptrServer(v float64) *float64 { return &v }
