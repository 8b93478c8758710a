// Package extraction implements the PDF financial-statement extraction
// pipeline: text-layer cascade, OCR fallback, regex field extraction,
// AI enhancement, reconciliation, and metric computation.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/interfaces"
	"github.com/finsight-io/finsight/internal/models"
)

// Service runs the extraction pipeline. Each invocation is synchronous and
// holds no cross-invocation state: the surrounding system is expected to
// run it inside an isolated worker with external wall-clock limits.
type Service struct {
	cfg      *common.Config
	logger   *common.Logger
	pageText *PageTextExtractor
	ocr      *OCRFallback
	ai       *AIFieldExtractor
}

// NewService wires the pipeline stages. llm and ocrEngine may be nil; the
// corresponding stages then contribute nothing in best-effort mode.
func NewService(cfg *common.Config, logger *common.Logger, llm interfaces.LLMClient, ocrEngine interfaces.OCREngine) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if cfg == nil {
		cfg = common.NewDefaultConfig()
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		pageText: NewPageTextExtractor(logger),
		ocr:      NewOCRFallback(cfg.OCR, ocrEngine, logger),
		ai:       NewAIFieldExtractor(llm),
	}
}

// ExtractFinancials turns a PDF into a reconciled field struct.
//
// Best-effort mode absorbs every soft failure; the worst case is a struct
// with every field nil, which downstream reports as insufficient data.
// Forced-AI mode propagates ErrMissingCredential and ErrExtractionFailed.
func (s *Service) ExtractFinancials(ctx context.Context, path string, opts models.ExtractOptions) (*models.ExtractedFinancials, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	// Forced-AI mode is pointless without a credential; fail before any
	// extraction work is spent.
	if opts.ForceAI && (s.ai.llm == nil || !s.ai.llm.HasCredential()) {
		return nil, models.ErrMissingCredential
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = s.cfg.Extraction.MaxPages
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = s.cfg.Extraction.MaxChars
	}
	// The AI-only path avoids heavy extractors to bound worker memory.
	fastOnly := opts.FastOnly || opts.ForceAI

	res, err := s.pageText.Extract(path, maxPages, maxChars, fastOnly)
	if err != nil {
		return nil, err
	}

	text := res.Text
	source := res.Source

	needsOCR := res.Garbled || isTooShort(text)
	if needsOCR && s.ocrPermitted(fastOnly, path) {
		s.logger.Info().
			Str("path", path).
			Bool("garbled", res.Garbled).
			Msg("Text layer unusable, attempting OCR fallback")
		if ocrText := s.ocr.Run(ctx, path); strings.TrimSpace(ocrText) != "" {
			text = truncate(stripControlChars(ocrText), maxChars)
			source = "ocr"
		}
	}

	if strings.TrimSpace(text) == "" {
		s.logger.Warn().Str("path", path).Msg("No text recovered from document")
		return &models.ExtractedFinancials{TextGarbled: res.Garbled}, nil
	}

	result := ExtractFields(text)
	result.TextSource = source
	result.TextGarbled = res.Garbled
	result.PagesScanned = res.PagesScanned

	if !opts.UseAI && !opts.ForceAI {
		return result, nil
	}

	if opts.ForceAI {
		aiData, err := s.ai.Extract(ctx, text, true)
		if err != nil {
			// Unusable model output is an extraction failure to the caller;
			// the malformed detail stays in the message for diagnostics.
			if errors.Is(err, models.ErrMalformedResponse) {
				return nil, fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
			}
			return nil, err
		}
		if len(aiData) == 0 {
			return nil, fmt.Errorf("%w: model returned no fields", models.ErrExtractionFailed)
		}
		s.applyAI(result, aiData)
		return result, nil
	}

	if NeedsAIEnhancement(result) {
		s.logger.Debug().Str("path", path).Msg("Regex extraction sparse, running AI enhancement")
		aiData, err := s.ai.Extract(ctx, text, false)
		if err == nil && len(aiData) > 0 {
			s.applyAI(result, aiData)
		}
	}

	return result, nil
}

// ocrPermitted applies the fast-only gate ahead of the resource guards.
// Fast-only mode skips heavy fallbacks unless OCR is explicitly enabled:
// a caller who turned OCR on gets it even on the bounded path.
func (s *Service) ocrPermitted(fastOnly bool, path string) bool {
	if fastOnly && !s.cfg.OCR.Enabled {
		return false
	}
	return s.ocr.Allowed(path)
}

func (s *Service) applyAI(result *models.ExtractedFinancials, aiData map[string]any) {
	overridden := MergeAIResult(result, aiData)
	result.AIEnhanced = true
	result.AIOverrode = overridden
	result.AIKeys = sortedKeys(aiData)
	s.logger.Debug().
		Int("ai_fields", len(aiData)).
		Int("overridden", len(overridden)).
		Msg("AI extraction merged")
}

// ComputeMetrics derives the standardized metric set, filtered for
// plausibility, plus the raw pass-through amounts.
func (s *Service) ComputeMetrics(f *models.ExtractedFinancials) []models.StandardizedMetric {
	computed := ComputeMetrics(f)

	var out []models.StandardizedMetric
	for _, meta := range metricCatalog {
		v, ok := computed[meta.code]
		if !ok {
			continue
		}
		if !IsReasonable(meta.code, v) {
			s.logger.Debug().
				Str("metric", string(meta.code)).
				Float64("value", v).
				Msg("Metric outside plausible range, dropped")
			continue
		}
		out = append(out, models.StandardizedMetric{Code: meta.code, Name: meta.name, Value: v, Unit: meta.unit})
	}

	for _, raw := range rawMetricCatalog(f) {
		if raw.value != nil {
			out = append(out, models.StandardizedMetric{Code: raw.code, Name: raw.name, Value: *raw.value})
		}
	}
	return out
}

var metricCatalog = []struct {
	code models.MetricCode
	name string
	unit string
}{
	{models.MetricGrossMargin, "Gross Margin", "%"},
	{models.MetricNetMargin, "Net Margin", "%"},
	{models.MetricROE, "Return on Equity", "%"},
	{models.MetricROA, "Return on Assets", "%"},
	{models.MetricCurrentRatio, "Current Ratio", "times"},
	{models.MetricQuickRatio, "Quick Ratio", "times"},
	{models.MetricDebtAsset, "Debt-to-Asset Ratio", "%"},
	{models.MetricEquityRatio, "Equity Ratio", "times"},
	{models.MetricAssetTurnover, "Asset Turnover", "times"},
	{models.MetricInventoryTurnover, "Inventory Turnover", "times"},
	{models.MetricReceivableTurnover, "Receivable Turnover", "times"},
}

func rawMetricCatalog(f *models.ExtractedFinancials) []struct {
	code  models.MetricCode
	name  string
	value *float64
} {
	return []struct {
		code  models.MetricCode
		name  string
		value *float64
	}{
		{models.MetricRawRevenue, "Revenue", f.Revenue},
		{models.MetricRawNetProfit, "Net Profit", f.NetProfit},
		{models.MetricRawAssets, "Total Assets", f.TotalAssets},
		{models.MetricRawLiab, "Total Liabilities", f.TotalLiabilities},
		{models.MetricRawEquity, "Total Equity", f.TotalEquity},
		{models.MetricRawCash, "Cash", f.Cash},
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic diagnostics
	return keys
}
