package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/models"
	"github.com/finsight-io/finsight/internal/services/alert"
	"github.com/finsight-io/finsight/internal/storage/reportfs"
)

// fakeExtraction scripts the pipeline boundary.
type fakeExtraction struct {
	financials *models.ExtractedFinancials
	metrics    []models.StandardizedMetric
	err        error
}

func (f *fakeExtraction) ExtractFinancials(ctx context.Context, path string, opts models.ExtractOptions) (*models.ExtractedFinancials, error) {
	return f.financials, f.err
}

func (f *fakeExtraction) ComputeMetrics(fin *models.ExtractedFinancials) []models.StandardizedMetric {
	return f.metrics
}

func fptr(v float64) *float64 { return &v }

func newTestService(t *testing.T, ex *fakeExtraction) (*Service, *reportfs.Store) {
	t.Helper()
	store, err := reportfs.NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	svc := NewService(ex, alert.NewService(nil), store, nil, common.NewSilentLogger())
	return svc, store
}

func TestAnalyze_Done(t *testing.T) {
	ex := &fakeExtraction{
		financials: &models.ExtractedFinancials{
			Revenue:      fptr(1000),
			NetProfit:    fptr(100),
			ReportPeriod: "2024-12-31",
		},
		metrics: []models.StandardizedMetric{
			{Code: models.MetricNetMargin, Name: "Net Margin", Value: 10, Unit: "%"},
			{Code: models.MetricDebtAsset, Name: "Debt-to-Asset Ratio", Value: 80, Unit: "%"},
		},
	}
	svc, _ := newTestService(t, ex)

	report, err := svc.Analyze(context.Background(), "/data/acme_fy2024.pdf", models.ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusDone, report.Status)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "acme fy2024", report.Company)
	assert.Equal(t, "2024-12-31", report.PeriodEnd)
	assert.Equal(t, "annual", report.PeriodType)
	assert.NotEmpty(t, report.Narrative, "fallback narrative expected without an LLM")
	assert.NotZero(t, report.HealthScore)

	// debt/asset 80% must surface as a critical alert
	var leverage bool
	for _, a := range report.Alerts {
		if a.Code == "HIGH_LEVERAGE" && a.Level == models.AlertCritical {
			leverage = true
		}
	}
	assert.True(t, leverage, "expected HIGH_LEVERAGE alert, got %v", report.Alerts)

	// The report must be retrievable after Analyze returns.
	got, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
}

func TestAnalyze_InsufficientData(t *testing.T) {
	ex := &fakeExtraction{financials: &models.ExtractedFinancials{}}
	svc, _ := newTestService(t, ex)

	report, err := svc.Analyze(context.Background(), "/data/blank.pdf", models.ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusInsufficientData, report.Status)
	assert.Empty(t, report.Metrics)
	assert.Empty(t, report.Narrative)

	// Even a failed run is persisted as the record of the attempt.
	got, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, got.Status)
}

func TestAnalyze_ExtractionFailure(t *testing.T) {
	ex := &fakeExtraction{err: models.ErrNotFound}
	svc, _ := newTestService(t, ex)

	report, err := svc.Analyze(context.Background(), "/missing.pdf", models.ExtractOptions{})
	require.NoError(t, err, "extraction failure is captured, not returned")

	assert.Equal(t, StatusFailed, report.Status)
	assert.Contains(t, report.Error, "not found")
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeExtraction{})
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound), "err = %v", err)
}

func TestList_NewestFirst(t *testing.T) {
	ex := &fakeExtraction{financials: &models.ExtractedFinancials{}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, "/a.pdf", models.ExtractOptions{})
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, "/b.pdf", models.ExtractOptions{})
	require.NoError(t, err)

	reports, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID)
	assert.Equal(t, first.ID, reports[1].ID)
}

func TestRenderChart_PercentageMetricsOnly(t *testing.T) {
	svc, _ := newTestService(t, &fakeExtraction{})

	report := &models.AnalysisReport{
		ID: "r1",
		Metrics: []models.StandardizedMetric{
			{Code: models.MetricNetMargin, Name: "Net Margin", Value: 12.5, Unit: "%"},
			{Code: models.MetricCurrentRatio, Name: "Current Ratio", Value: 1.8, Unit: "times"},
		},
	}
	png, err := svc.RenderChart(report)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4], "expected PNG magic")

	// Second render is served from cache and must be identical.
	again, err := svc.RenderChart(report)
	require.NoError(t, err)
	assert.Equal(t, png, again)
}

func TestRenderChart_NoPercentageMetrics(t *testing.T) {
	svc, _ := newTestService(t, &fakeExtraction{})
	report := &models.AnalysisReport{
		ID: "r2",
		Metrics: []models.StandardizedMetric{
			{Code: models.MetricCurrentRatio, Name: "Current Ratio", Value: 1.8, Unit: "times"},
		},
	}
	_, err := svc.RenderChart(report)
	assert.Error(t, err)
}

func TestParseNarrative(t *testing.T) {
	if got := parseNarrative(`{"narrative": "Solid margins."}`); got != "Solid margins." {
		t.Errorf("parseNarrative = %q", got)
	}
	if got := parseNarrative("```json\n{\"narrative\": \"ok\"}\n```"); got != "ok" {
		t.Errorf("fenced parseNarrative = %q", got)
	}
	if got := parseNarrative("not json at all"); got != "" {
		t.Errorf("malformed input should yield empty, got %q", got)
	}
}

func TestCompanyFromPath(t *testing.T) {
	cases := map[string]string{
		"/data/acme_fy2024.pdf":   "acme fy2024",
		"berkshire-10k.pdf":       "berkshire 10k",
		"/reports/贵州茅台2023年报.pdf": "贵州茅台2023年报",
	}
	for in, want := range cases {
		if got := companyFromPath(in); got != want {
			t.Errorf("companyFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
