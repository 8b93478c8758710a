package report

import (
	"fmt"
	"strings"

	"github.com/finsight-io/finsight/internal/models"
)

// Health-score bands. The score starts at a neutral base and moves with
// profitability, leverage, and liquidity; it is clamped to [0, 100].
const (
	healthBase = 50
	healthMin  = 0
	healthMax  = 100
)

// CalculateHealthScore condenses the metric set into a single 0-100 score.
func CalculateHealthScore(metrics []models.StandardizedMetric) int {
	byCode := make(map[models.MetricCode]float64, len(metrics))
	for _, m := range metrics {
		byCode[m.Code] = m.Value
	}

	score := healthBase

	if gm, ok := byCode[models.MetricGrossMargin]; ok && gm != 0 {
		switch {
		case gm > 40:
			score += 15
		case gm > 25:
			score += 10
		case gm > 15:
			score += 5
		}
	}

	if nm, ok := byCode[models.MetricNetMargin]; ok && nm != 0 {
		switch {
		case nm > 15:
			score += 15
		case nm > 8:
			score += 10
		case nm > 3:
			score += 5
		case nm < 0:
			score -= 10
		}
	}

	if roe, ok := byCode[models.MetricROE]; ok && roe != 0 {
		switch {
		case roe > 20:
			score += 10
		case roe > 12:
			score += 5
		case roe < 5:
			score -= 5
		}
	}

	if da, ok := byCode[models.MetricDebtAsset]; ok && da != 0 {
		switch {
		case da < 40:
			score += 10
		case da < 55:
			score += 5
		case da > 70:
			score -= 10
		}
	}

	if cr, ok := byCode[models.MetricCurrentRatio]; ok && cr != 0 {
		switch {
		case cr > 2:
			score += 5
		case cr < 1:
			score -= 10
		}
	}

	if score < healthMin {
		score = healthMin
	}
	if score > healthMax {
		score = healthMax
	}
	return score
}

// healthRating maps a score to a one-word rating.
func healthRating(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	}
	return "poor"
}

// FallbackNarrative produces a deterministic narrative from the metric set
// when no model is available or the model call fails. It never errors:
// missing metrics simply shrink the narrative.
func FallbackNarrative(company string, metrics []models.StandardizedMetric) string {
	byCode := make(map[models.MetricCode]float64, len(metrics))
	for _, m := range metrics {
		byCode[m.Code] = m.Value
	}

	var parts []string

	if gm, ok := byCode[models.MetricGrossMargin]; ok {
		switch {
		case gm > 40:
			parts = append(parts, fmt.Sprintf("Profitability: gross margin of %.2f%% is strong, indicating solid pricing power.", gm))
		case gm > 25:
			parts = append(parts, fmt.Sprintf("Profitability: gross margin of %.2f%% is around mid-industry levels, earnings quality is steady.", gm))
		default:
			parts = append(parts, fmt.Sprintf("Profitability: gross margin of %.2f%% is relatively low; cost control and product mix deserve attention.", gm))
		}
	}
	if nm, ok := byCode[models.MetricNetMargin]; ok && nm < 0 {
		parts = append(parts, fmt.Sprintf("Profitability: net margin of %.2f%% means the company is operating at a loss.", nm))
	}

	if da, ok := byCode[models.MetricDebtAsset]; ok {
		switch {
		case da < 40:
			parts = append(parts, fmt.Sprintf("Solvency: debt-to-asset ratio of only %.2f%% reflects a very conservative capital structure with little repayment pressure.", da))
		case da < 60:
			parts = append(parts, fmt.Sprintf("Solvency: debt-to-asset ratio of %.2f%% sits in a reasonable band, financial risk looks contained.", da))
		default:
			parts = append(parts, fmt.Sprintf("Solvency: debt-to-asset ratio of %.2f%% implies high leverage; repayment capacity needs monitoring.", da))
		}
	}
	if cr, ok := byCode[models.MetricCurrentRatio]; ok && cr < 1 {
		parts = append(parts, fmt.Sprintf("Liquidity: current ratio of %.2f means short-term obligations exceed current assets.", cr))
	}

	score := CalculateHealthScore(metrics)
	parts = append(parts, fmt.Sprintf("Overall: financial health score of %d (%s).", score, healthRating(score)))

	switch {
	case score >= 70:
		parts = append(parts, "Assessment: financial condition is sound; worth tracking earnings momentum going forward.")
	case score >= 50:
		parts = append(parts, "Assessment: financial condition is average; the risk indicators above warrant caution.")
	default:
		parts = append(parts, "Assessment: financial condition carries notable risk; fundamentals should improve before drawing firmer conclusions.")
	}

	if company != "" {
		return company + "\n\n" + strings.Join(parts, "\n\n")
	}
	return strings.Join(parts, "\n\n")
}

// buildNarrativePrompt asks the model for a short structured commentary as
// JSON so the response parser stays shared with field extraction.
func buildNarrativePrompt(company string, metrics []models.StandardizedMetric) string {
	var sb strings.Builder
	sb.WriteString("You are a financial analyst. Based on the metrics below, write a short narrative assessment")
	if company != "" {
		sb.WriteString(" of " + company)
	}
	sb.WriteString(".\n\nMetrics:\n")
	for _, m := range metrics {
		fmt.Fprintf(&sb, "- %s: %.2f %s\n", m.Name, m.Value, m.Unit)
	}
	sb.WriteString("\nCover profitability, solvency, and liquidity in 4-8 sentences. ")
	sb.WriteString("Be measured, note data gaps explicitly, and do not give buy or sell advice.\n")
	sb.WriteString(`Return ONLY a JSON object: {"narrative": "<your assessment>"}`)
	return sb.String()
}
