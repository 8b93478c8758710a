package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/finsight-io/finsight/internal/models"
)

// Ordered bilingual label patterns per field. Each list is tried in order
// and the first match that parses as a number wins, so the most specific
// phrasings (Apple's "Total net sales", A-share quarterly wording) come
// before the generic ones. Minimum-magnitude floors reject accidental
// matches against page numbers and footnote markers.

const (
	amountFloorLarge = 1000 // revenue, assets, liabilities
	amountFloorMid   = 100  // profit, equity, current items
	amountFloorSmall = 10   // cash, inventory, receivables
)

type fieldSpec struct {
	patterns  []*regexp.Regexp
	minValue  float64
	flattened bool // match against the newline-flattened copy
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

var (
	revenueSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+net\s+sales\s*\$?\s*([0-9,\s]+)`,
			`(?i)Total\s+revenues?\s*\$?\s*([0-9,\s]+)`,
			`(?i)Net\s+sales\s*\$?\s*([0-9,\s]+)`,
			`(?i)Operating\s*revenue\s*\(RMB\)\s*([0-9,\s]+(?:\.[0-9]+)?)`,
			`营业收入[:\s]*([0-9,\s]+)`,
			`实现营业收入([0-9,\s]+(?:\.[0-9]+)?)`,
		),
		minValue:  amountFloorLarge,
		flattened: true,
	}
	costSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+cost\s+of\s+(?:revenues?|sales)\s*\$?\s*([0-9,\s]+)`,
			`(?i)Cost\s+of\s+(?:revenues?|sales)\s*\$?\s*([0-9,\s]+)`,
			`(?i)Cost\s+of\s+sales:\s*\n?\s*Products?\s*\$?\s*([0-9,\s]+)`,
			`营业成本[:\s]*([0-9,\s]+)`,
		),
		minValue:  amountFloorLarge,
		flattened: true,
	}
	grossProfitSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Gross\s+(?:profit|margin)\s*\$?\s*([0-9,\s]+)`,
			`毛利润?[:\s]*([0-9,\s]+)`,
		),
		minValue:  amountFloorMid,
		flattened: true,
	}
	netProfitSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Net\s+income\s+attributable\s+to\s+common\s+stockholders?\s*\$?\s*([0-9,\s]+)`,
			`(?i)Net\s+income\s*\$?\s*([0-9,\s]+)`,
			`(?i)Net\s+profit\s+attributable\s+to.*shareholders\s*\(RMB\)\s*([0-9,\s]+(?:\.[0-9]+)?)`,
			`归属于上市公司股东的净利润[(]元[)]\s*([0-9,\s]+(?:\.[0-9]+)?)`,
			`净利润[:\s]*([0-9,\s]+)`,
			`归属于.*股东的净利润\s*([0-9,\s]+)`,
		),
		minValue:  amountFloorMid,
		flattened: true,
	}
	totalAssetsSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+assets\s*\$?\s*([0-9,\s]+)`,
			`(?i)Total\s*assets\s*\(RMB\)\s*([0-9,\s]+(?:\.[0-9]+)?)`,
			`资产总计\s+([0-9,\s]+(?:\.[0-9]+)?)`,
			`资产总[计额][:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorLarge,
	}
	totalEquitySpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+stockholders['’]?\s*equity\s*\$?\s*\(?([0-9,\s]+)\)?`,
			`(?i)Total\s+equity\s*\$?\s*\(?([0-9,\s]+)\)?`,
			`所有者权益合计[:\s]*([0-9,\s]+)`,
			`归属于.*股东的股东权益\s*([0-9,\s]+)`,
			`股东权益\s*([0-9,\s]+)`,
		),
		minValue: amountFloorMid,
	}
	totalLiabilitiesSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+liabilities\s*\$?\s*([0-9,\s]+)`,
			`负债总[计额][:\s]*([0-9,\s]+)`,
			`负债合计[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorLarge,
	}
	currentAssetsSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+current\s+assets\s*\$?\s*([0-9,\s]+)`,
			`流动资产合计[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorMid,
	}
	currentLiabilitiesSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Total\s+current\s+liabilities\s*\$?\s*([0-9,\s]+)`,
			`流动负债合计[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorMid,
	}
	cashSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Cash\s+and\s+cash\s+equivalents\s*\$?\s*([0-9,\s]+)`,
			`货币资金[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorSmall,
	}
	inventorySpec = fieldSpec{
		patterns: compileAll(
			`(?i)Inventor(?:y|ies)\s*\$?\s*([0-9,\s]+)`,
			`存货[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorSmall,
	}
	receivablesSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Accounts\s+receivable[^$]*?\$?\s*([0-9,\s]+)`,
			`应收账款[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorSmall,
	}
	fixedAssetsSpec = fieldSpec{
		patterns: compileAll(
			`(?i)Property,?\s+plant\s+and\s+equipment,?\s*(?:net)?\s*\$?\s*([0-9,\s]+)`,
			`固定资产[:\s]*([0-9,\s]+)`,
		),
		minValue: amountFloorSmall,
	}
)

// Directly-stated ratio patterns. Matches are validated into (0, 500):
// exactly-zero and absurd percentages are treated as non-matches.
var (
	grossMarginPatterns = compileAll(
		`(?i)Gross\s+margin\s+(?:total\s+)?(?:automotive)?\s*([0-9.]+)\s*%`,
		`(?i)Gross\s+margin\s*[:\s]*([0-9.]+)\s*%`,
		`毛利率[:\s]*([0-9.]+)\s*%?`,
	)
	netMarginPatterns = compileAll(
		`(?i)Net\s+(?:profit\s+)?margin\s*[:\s]*([0-9.]+)\s*%`,
		`净利率[:\s]*([0-9.]+)\s*%?`,
		`销售净利率[:\s]*([0-9.]+)\s*%?`,
	)
	roePatterns = compileAll(
		`加权平均净资产收益率[(]年化[)]\s*([0-9.]+)%`,
		`净资产收益率[:\s]*([0-9.]+)\s*%?`,
		`(?i)ROE[:\s]*([0-9.]+)\s*%?`,
	)
	roaPatterns = compileAll(
		`平均总资产收益率[(]年化[)]\s*([0-9.]+)%`,
		`总资产收益率[:\s]*([0-9.]+)\s*%?`,
		`(?i)ROA[:\s]*([0-9.]+)\s*%?`,
	)
)

// ExtractFields applies the pattern tables to normalized text and returns
// a partially populated struct; the AI stage fills the remainder. The
// regex layer is deterministic: identical input text always yields an
// identical struct.
func ExtractFields(text string) *models.ExtractedFinancials {
	result := &models.ExtractedFinancials{}
	if strings.TrimSpace(text) == "" {
		return result
	}

	text = NormalizeText(text)

	// Some PDFs wrap table values across lines; keep a flattened copy for
	// the patterns that need to see label and value together.
	flattened := strings.ReplaceAll(text, "\n", " ")

	result.ReportPeriod, result.ReportYear = inferReportPeriod(text)

	// Direct percentages take priority over anything derived later.
	result.GrossMarginDirect = findPercentage(grossMarginPatterns, text)
	result.NetMarginDirect = findPercentage(netMarginPatterns, text)
	result.ROEDirect = findPercentage(roePatterns, text)
	result.ROADirect = findPercentage(roaPatterns, text)

	scale := DetectUnitScale(text)

	amount := func(spec fieldSpec) *float64 {
		src := text
		if spec.flattened {
			src = flattened
		}
		return scaleAmount(findFirstNumber(spec.patterns, src, spec.minValue), scale)
	}

	result.Revenue = amount(revenueSpec)
	result.Cost = amount(costSpec)
	result.GrossProfit = amount(grossProfitSpec)
	result.NetProfit = amount(netProfitSpec)
	result.TotalAssets = amount(totalAssetsSpec)
	result.TotalEquity = amount(totalEquitySpec)
	result.TotalLiabilities = amount(totalLiabilitiesSpec)
	result.CurrentAssets = amount(currentAssetsSpec)
	result.CurrentLiabilities = amount(currentLiabilitiesSpec)
	result.Cash = amount(cashSpec)
	result.Inventory = amount(inventorySpec)
	result.Receivables = amount(receivablesSpec)
	result.FixedAssets = amount(fixedAssetsSpec)

	// One-directional derivations: fill an absent side from the accounting
	// identity, never overwrite an explicit value.
	if result.TotalLiabilities == nil && result.TotalAssets != nil && result.TotalEquity != nil {
		v := *result.TotalAssets - *result.TotalEquity
		result.TotalLiabilities = &v
	}
	if result.TotalEquity == nil && result.TotalAssets != nil && result.TotalLiabilities != nil {
		v := *result.TotalAssets - *result.TotalLiabilities
		result.TotalEquity = &v
	}

	return result
}

// findFirstNumber returns the first pattern's first match that parses as a
// number with magnitude at or above the floor.
func findFirstNumber(patterns []*regexp.Regexp, text string, minValue float64) *float64 {
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			v, ok := parseAmount(m[1])
			if !ok {
				continue
			}
			if abs(v) >= minValue {
				return &v
			}
		}
	}
	return nil
}

// parseAmount strips thousands separators and currency symbols; a value
// wrapped in parentheses is negative.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", " ", "", "$", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// findPercentage returns the first match parsing into the plausible (0, 500)
// percentage band. ROE/ROA can legitimately exceed 100 for leveraged firms.
func findPercentage(patterns []*regexp.Regexp, text string) *float64 {
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			s := strings.TrimSpace(strings.NewReplacer(",", "", "%", "").Replace(m[1]))
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			if v > 0 && v < 500 {
				return &v
			}
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
