package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/finsight-io/finsight/internal/interfaces"
	"github.com/finsight-io/finsight/internal/models"
)

// AI-trigger thresholds. These are empirically tuned values carried over
// from production behavior; they are tunable knobs, not invariants.
const (
	// AITriggerKeyFieldCount: the AI pass runs when fewer than this many of
	// the nine key fields were regex-extracted.
	AITriggerKeyFieldCount = 8

	// AITriggerCoreMissing: the AI pass also runs when at least this many
	// of the seven core balance/income fields are missing.
	AITriggerCoreMissing = 3

	// AIInputMaxChars caps the text sent to the model.
	AIInputMaxChars = 15000

	aiTruncationMarker = "\n...(text truncated)"
)

// NeedsAIEnhancement applies the trigger policy to a regex-extracted struct.
func NeedsAIEnhancement(f *models.ExtractedFinancials) bool {
	keyFields := []*float64{
		f.Revenue, f.NetProfit, f.TotalAssets,
		f.TotalEquity, f.GrossMarginDirect, f.ROEDirect,
		f.TotalLiabilities, f.CurrentAssets, f.CurrentLiabilities,
	}
	extracted := 0
	for _, v := range keyFields {
		if v != nil {
			extracted++
		}
	}

	coreFields := []*float64{
		f.Revenue, f.NetProfit, f.TotalAssets, f.TotalLiabilities,
		f.TotalEquity, f.CurrentAssets, f.CurrentLiabilities,
	}
	coreMissing := 0
	for _, v := range coreFields {
		if v == nil {
			coreMissing++
		}
	}

	return extracted < AITriggerKeyFieldCount || coreMissing >= AITriggerCoreMissing
}

// buildExtractionPrompt enumerates every target field with its expected
// unit and demands exactly one JSON object with no prose.
func buildExtractionPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(`Extract the key financial figures from the financial statement text below.
Respond with exactly one JSON object and no other text.

Fields to extract (use null when a value cannot be found):
{
    "report_period": "reporting period end date, format YYYY-MM-DD",
    "report_year": "reporting year, e.g. 2024",
    "revenue": "total operating revenue (number, in millions)",
    "net_profit": "net profit attributable to shareholders (number, in millions)",
    "total_assets": "total assets (number, in millions)",
    "total_liabilities": "total liabilities (number, in millions)",
    "total_equity": "total shareholders' equity (number, in millions)",
    "gross_profit": "gross profit (number, in millions)",
    "gross_margin": "gross margin (percentage number, e.g. 32.5)",
    "net_margin": "net margin (percentage number)",
    "roe": "return on equity (percentage number)",
    "roa": "return on assets (percentage number)",
    "current_ratio": "current ratio (number)",
    "quick_ratio": "quick ratio (number)",
    "debt_ratio": "debt-to-asset ratio (percentage number)",
    "current_assets": "current assets (number, in millions)",
    "current_liabilities": "current liabilities (number, in millions)"
}

Rules:
1. Numbers must not contain thousands separators.
2. If amounts are stated in 亿元 (hundred millions), convert to millions (multiply by 100).
3. If amounts are stated in 万元 (ten thousands), convert to millions (divide by 100).
4. If amounts are stated in billions, convert to millions (multiply by 1000).
5. Percentages: return the number only, without the % sign.

Financial statement text:
`)
	sb.WriteString(text)
	sb.WriteString("\n\nReturn the JSON object only, with no prefix or suffix text.")
	return sb.String()
}

// AIFieldExtractor sends extracted text to the LLM under a strict-JSON
// prompt contract and parses the response.
type AIFieldExtractor struct {
	llm interfaces.LLMClient
}

// NewAIFieldExtractor wraps an LLM client.
func NewAIFieldExtractor(llm interfaces.LLMClient) *AIFieldExtractor {
	return &AIFieldExtractor{llm: llm}
}

// Extract returns the raw key→value map the model produced. In best-effort
// mode (raiseOnError false) every failure returns an empty map so the
// regex-only result stands; forced mode propagates typed errors.
func (a *AIFieldExtractor) Extract(ctx context.Context, text string, raiseOnError bool) (map[string]any, error) {
	if a.llm == nil || !a.llm.HasCredential() {
		if raiseOnError {
			return nil, models.ErrMissingCredential
		}
		return map[string]any{}, nil
	}

	if r := []rune(text); len(r) > AIInputMaxChars {
		text = string(r[:AIInputMaxChars]) + aiTruncationMarker
	}

	raw, err := a.llm.GenerateJSON(ctx, buildExtractionPrompt(text))
	if err != nil {
		if raiseOnError {
			return nil, fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
		}
		return map[string]any{}, nil
	}

	result, err := parseModelJSON(raw)
	if err != nil {
		if raiseOnError {
			return nil, err
		}
		return map[string]any{}, nil
	}
	return result, nil
}

// parseModelJSON cleans up a model completion and parses it: code fences
// are stripped, prose around the outermost braces is discarded, and as a
// last resort the payload goes through JSON repair.
func parseModelJSON(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", models.ErrMalformedResponse)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return result, nil
	}

	repaired, err := jsonrepair.RepairJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	return result, nil
}
