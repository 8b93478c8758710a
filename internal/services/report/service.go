// Package report orchestrates one analysis run: extraction, metric
// computation, alerting, scoring, narrative, and persistence.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/interfaces"
	"github.com/finsight-io/finsight/internal/models"
)

// Report statuses.
const (
	StatusDone             = "done"
	StatusInsufficientData = "insufficient_data"
	StatusFailed           = "failed"
)

// chartCacheTTL bounds how long a rendered chart is served from memory.
// Reports are immutable once done, but failed-then-retried IDs are not.
const chartCacheTTL = 10 * time.Minute

// Service implements interfaces.ReportService.
type Service struct {
	extraction interfaces.ExtractionService
	alerts     interfaces.AlertService
	storage    interfaces.ReportStorage
	llm        interfaces.LLMClient
	logger     *common.Logger

	chartCache *common.TTLCache[[]byte]
}

// NewService wires a report service.
func NewService(
	extraction interfaces.ExtractionService,
	alerts interfaces.AlertService,
	storage interfaces.ReportStorage,
	llm interfaces.LLMClient,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		extraction: extraction,
		alerts:     alerts,
		storage:    storage,
		llm:        llm,
		logger:     logger,
		chartCache: common.NewTTLCache[[]byte](chartCacheTTL),
	}
}

// Analyze runs the full pipeline over one PDF and persists the result.
// Extraction failures are captured in the report rather than returned: the
// persisted artifact is the record of the attempt either way. The error
// return is reserved for storage failures.
func (s *Service) Analyze(ctx context.Context, path string, opts models.ExtractOptions) (*models.AnalysisReport, error) {
	started := time.Now()
	report := &models.AnalysisReport{
		ID:         uuid.New().String(),
		SourcePath: path,
		Company:    companyFromPath(path),
		CreatedAt:  started,
	}

	financials, err := s.extraction.ExtractFinancials(ctx, path, opts)
	if err != nil {
		report.Status = StatusFailed
		report.Error = err.Error()
		s.logger.Warn().Str("id", report.ID).Err(err).Msg("Extraction failed")
		return report, s.persist(ctx, report)
	}

	report.Financials = financials
	report.PeriodEnd = financials.ReportPeriod
	report.PeriodType = financials.PeriodType()
	report.Metrics = s.extraction.ComputeMetrics(financials)

	if len(report.Metrics) == 0 {
		report.Status = StatusInsufficientData
		s.logger.Info().Str("id", report.ID).Msg("No metrics derivable from document")
		return report, s.persist(ctx, report)
	}

	report.Alerts = s.alerts.Evaluate(report.Metrics)
	report.HealthScore = CalculateHealthScore(report.Metrics)
	report.Narrative = s.narrative(ctx, report.Company, report.Metrics)
	report.Status = StatusDone

	s.logger.Info().
		Str("id", report.ID).
		Int("metrics", len(report.Metrics)).
		Int("alerts", len(report.Alerts)).
		Int("health_score", report.HealthScore).
		Dur("elapsed", time.Since(started)).
		Msg("Analysis complete")

	return report, s.persist(ctx, report)
}

// Get loads a persisted report by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.AnalysisReport, error) {
	report, err := s.storage.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: report %s", models.ErrNotFound, id)
	}
	return report, nil
}

// List returns all persisted reports, newest first.
func (s *Service) List(ctx context.Context) ([]*models.AnalysisReport, error) {
	return s.storage.ListReports(ctx)
}

// RenderChart renders the report's percentage metrics as a PNG bar chart.
// Renders are cached briefly since dashboards tend to poll the same report.
func (s *Service) RenderChart(report *models.AnalysisReport) ([]byte, error) {
	if png, ok := s.chartCache.Get(report.ID); ok {
		return png, nil
	}
	png, err := RenderMetricsChart(report)
	if err != nil {
		return nil, err
	}
	s.chartCache.Set(report.ID, png)
	return png, nil
}

func (s *Service) persist(ctx context.Context, report *models.AnalysisReport) error {
	if err := s.storage.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to persist report %s: %w", report.ID, err)
	}
	return nil
}

// narrative asks the model for a short commentary and falls back to the
// deterministic template on any failure.
func (s *Service) narrative(ctx context.Context, company string, metrics []models.StandardizedMetric) string {
	if s.llm != nil && s.llm.HasCredential() {
		raw, err := s.llm.GenerateJSON(ctx, buildNarrativePrompt(company, metrics))
		if err == nil {
			if n := parseNarrative(raw); n != "" {
				return n
			}
		} else {
			s.logger.Debug().Err(err).Msg("Narrative generation failed, using fallback")
		}
	}
	return FallbackNarrative(company, metrics)
}

// parseNarrative pulls the narrative string out of the model response.
func parseNarrative(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var payload struct {
		Narrative string `json:"narrative"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Narrative)
}

// companyFromPath derives a display name from the source filename.
func companyFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}
