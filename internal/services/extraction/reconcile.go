package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/finsight-io/finsight/internal/models"
)

// Reconciliation: the deterministic merge deciding, per field, whether an
// AI-extracted value supersedes the regex-extracted one.
//
// Override policy:
//   - absent AI value never overrides
//   - absent or exactly-zero base value always accepts the AI value
//   - percentage fields: AI corrects only a base outside [0, 100], and
//     only with a value inside it — a plausible base is never replaced
//   - amount fields: AI corrects order-of-magnitude unit errors (ratio
//     ≥10× or ≤0.1×) but never a same-order disagreement
const (
	pctPlausibleMin    = 0.0
	pctPlausibleMax    = 100.0
	magnitudeRatioHigh = 10.0
	magnitudeRatioLow  = 0.1
)

// percentageFields are the AI keys holding percentage-typed values.
var percentageFields = map[string]bool{
	"gross_margin": true,
	"net_margin":   true,
	"roe":          true,
	"roa":          true,
	"debt_ratio":   true,
}

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MergeAIResult merges an AI key→value map into the regex-extracted base,
// mutating it in place. Returns the names of the fields actually
// overridden — diagnostics only, not part of the financial data contract.
func MergeAIResult(base *models.ExtractedFinancials, aiData map[string]any) []string {
	if base == nil || len(aiData) == 0 {
		return nil
	}

	fieldMap := map[string]**float64{
		"revenue":             &base.Revenue,
		"net_profit":          &base.NetProfit,
		"total_assets":        &base.TotalAssets,
		"total_liabilities":   &base.TotalLiabilities,
		"total_equity":        &base.TotalEquity,
		"gross_profit":        &base.GrossProfit,
		"current_assets":      &base.CurrentAssets,
		"current_liabilities": &base.CurrentLiabilities,
		"gross_margin":        &base.GrossMarginDirect,
		"net_margin":          &base.NetMarginDirect,
		"roe":                 &base.ROEDirect,
		"roa":                 &base.ROADirect,
		"current_ratio":       &base.CurrentRatioDirect,
		"debt_ratio":          &base.DebtRatioDirect,
	}

	var overridden []string
	for key, target := range fieldMap {
		aiValue := toFloat(aiData[key])
		if shouldOverride(*target, aiValue, percentageFields[key]) {
			*target = aiValue
			overridden = append(overridden, key)
		}
	}

	// Period fields are strings: fill only when the base found nothing and
	// the AI value is well-formed.
	if base.ReportPeriod == "" {
		if s, ok := aiData["report_period"].(string); ok && reISODate.MatchString(s) {
			base.ReportPeriod = s
			overridden = append(overridden, "report_period")
		}
	}
	if base.ReportYear == "" {
		if s := stringValue(aiData["report_year"]); len(s) == 4 {
			if _, err := strconv.Atoi(s); err == nil {
				base.ReportYear = s
				overridden = append(overridden, "report_year")
			}
		}
	}

	return overridden
}

// shouldOverride applies the per-field override policy.
func shouldOverride(cur, ai *float64, isPct bool) bool {
	if ai == nil {
		return false
	}
	if cur == nil || *cur == 0 {
		return true
	}

	if isPct {
		curPlausible := *cur >= pctPlausibleMin && *cur <= pctPlausibleMax
		aiPlausible := *ai >= pctPlausibleMin && *ai <= pctPlausibleMax
		return !curPlausible && aiPlausible
	}

	if *ai == 0 {
		return false
	}
	ratio := abs(*ai / *cur)
	return ratio >= magnitudeRatioHigh || ratio <= magnitudeRatioLow
}

// toFloat converts an AI-returned value to a float, rejecting null-like
// sentinel strings the models tend to emit.
func toFloat(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		s := strings.TrimSpace(t)
		switch s {
		case "", "null", "None", "nan", "NaN", "--":
			return nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.Itoa(int(t))
	}
	return ""
}
