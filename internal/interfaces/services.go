package interfaces

import (
	"context"

	"github.com/finsight-io/finsight/internal/models"
)

// ExtractionService runs the PDF extraction pipeline end to end.
type ExtractionService interface {
	// ExtractFinancials turns a PDF into a reconciled field struct. In
	// best-effort mode the worst case is a struct with every field nil;
	// forced-AI mode propagates typed failures.
	ExtractFinancials(ctx context.Context, path string, opts models.ExtractOptions) (*models.ExtractedFinancials, error)

	// ComputeMetrics derives the standardized metric set from a reconciled
	// struct, already plausibility-filtered.
	ComputeMetrics(f *models.ExtractedFinancials) []models.StandardizedMetric
}

// AlertService evaluates rule-based alerts over a computed metric set.
type AlertService interface {
	Evaluate(metrics []models.StandardizedMetric) []models.Alert
}

// ReportService orchestrates extraction, metrics, alerts, and persistence.
type ReportService interface {
	Analyze(ctx context.Context, path string, opts models.ExtractOptions) (*models.AnalysisReport, error)
	Get(ctx context.Context, id string) (*models.AnalysisReport, error)
	List(ctx context.Context) ([]*models.AnalysisReport, error)
	RenderChart(report *models.AnalysisReport) ([]byte, error)
}
