// Package models defines the data structures shared across FinSight services.
package models

import "time"

// ExtractedFinancials holds the line items pulled out of a single filing.
// Every field is independently optional: nil means "not found in the
// document", never zero. Amounts are in the document's stated unit,
// normalized to millions where the unit is detectable.
type ExtractedFinancials struct {
	ReportPeriod string `json:"report_period,omitempty"` // YYYY-MM-DD
	ReportYear   string `json:"report_year,omitempty"`

	// Income statement
	Revenue     *float64 `json:"revenue,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
	GrossProfit *float64 `json:"gross_profit,omitempty"`
	NetProfit   *float64 `json:"net_profit,omitempty"`

	// Balance sheet
	TotalAssets        *float64 `json:"total_assets,omitempty"`
	TotalLiabilities   *float64 `json:"total_liabilities,omitempty"`
	TotalEquity        *float64 `json:"total_equity,omitempty"`
	CurrentAssets      *float64 `json:"current_assets,omitempty"`
	CurrentLiabilities *float64 `json:"current_liabilities,omitempty"`
	Cash               *float64 `json:"cash,omitempty"`
	Inventory          *float64 `json:"inventory,omitempty"`
	Receivables        *float64 `json:"receivables,omitempty"`
	FixedAssets        *float64 `json:"fixed_assets,omitempty"`

	// Ratios stated directly in the filing. These bypass derivation.
	GrossMarginDirect  *float64 `json:"gross_margin_direct,omitempty"`
	NetMarginDirect    *float64 `json:"net_margin_direct,omitempty"`
	ROEDirect          *float64 `json:"roe_direct,omitempty"`
	ROADirect          *float64 `json:"roa_direct,omitempty"`
	CurrentRatioDirect *float64 `json:"current_ratio_direct,omitempty"`
	DebtRatioDirect    *float64 `json:"debt_ratio_direct,omitempty"`

	// Provenance diagnostics. Not financial data; never persisted as metrics.
	AIEnhanced   bool     `json:"ai_enhanced,omitempty"`
	AIKeys       []string `json:"ai_keys,omitempty"`
	AIOverrode   []string `json:"ai_overrode,omitempty"`
	TextSource   string   `json:"text_source,omitempty"` // which extractor stage produced the text
	TextGarbled  bool     `json:"text_garbled,omitempty"`
	PagesScanned int      `json:"pages_scanned,omitempty"`
}

// PeriodType infers quarter vs annual from the period end date.
// Returns empty string when the period is unknown or irregular.
func (f *ExtractedFinancials) PeriodType() string {
	switch {
	case f.ReportPeriod == "":
		return ""
	case hasSuffixAny(f.ReportPeriod, "-03-31", "-06-30", "-09-30"):
		return "quarter"
	case hasSuffixAny(f.ReportPeriod, "-12-31"):
		return "annual"
	}
	return ""
}

func hasSuffixAny(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// MetricCode identifies a standardized metric.
type MetricCode string

// Ratio metric codes.
const (
	MetricGrossMargin        MetricCode = "GROSS_MARGIN"
	MetricNetMargin          MetricCode = "NET_MARGIN"
	MetricROE                MetricCode = "ROE"
	MetricROA                MetricCode = "ROA"
	MetricCurrentRatio       MetricCode = "CURRENT_RATIO"
	MetricQuickRatio         MetricCode = "QUICK_RATIO"
	MetricDebtAsset          MetricCode = "DEBT_ASSET"
	MetricEquityRatio        MetricCode = "EQUITY_RATIO"
	MetricAssetTurnover      MetricCode = "ASSET_TURNOVER"
	MetricInventoryTurnover  MetricCode = "INVENTORY_TURNOVER"
	MetricReceivableTurnover MetricCode = "RECEIVABLE_TURNOVER"
)

// Raw pass-through metric codes persisted alongside ratios.
const (
	MetricRawRevenue   MetricCode = "IS.REVENUE"
	MetricRawNetProfit MetricCode = "IS.NET_PROFIT"
	MetricRawAssets    MetricCode = "BS.ASSET_TOTAL"
	MetricRawLiab      MetricCode = "BS.LIAB_TOTAL"
	MetricRawEquity    MetricCode = "BS.EQUITY_TOTAL"
	MetricRawCash      MetricCode = "BS.CASH"
)

// StandardizedMetric is one computed metric for one extraction run.
// Instances are computed fresh per run and superseded, never merged.
type StandardizedMetric struct {
	Code  MetricCode `json:"code"`
	Name  string     `json:"name"`
	Value float64    `json:"value"`
	Unit  string     `json:"unit"` // "%", "times", or ""
}

// AlertLevel grades a rule-based alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarn     AlertLevel = "warn"
	AlertCritical AlertLevel = "critical"
)

// Alert is a rule-based finding over the computed metric set.
type Alert struct {
	Code    string     `json:"code"`
	Level   AlertLevel `json:"level"`
	Metric  MetricCode `json:"metric"`
	Value   float64    `json:"value"`
	Message string     `json:"message"`
}

// AnalysisReport is the persisted artifact of one extraction run.
type AnalysisReport struct {
	ID          string               `json:"id"`
	SourcePath  string               `json:"source_path"`
	Company     string               `json:"company,omitempty"`
	PeriodEnd   string               `json:"period_end,omitempty"`
	PeriodType  string               `json:"period_type,omitempty"`
	Financials  *ExtractedFinancials `json:"financials"`
	Metrics     []StandardizedMetric `json:"metrics"`
	Alerts      []Alert              `json:"alerts,omitempty"`
	HealthScore int                  `json:"health_score"`
	Narrative   string               `json:"narrative,omitempty"`
	Status      string               `json:"status"` // done | insufficient_data | failed
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ExtractOptions controls a single extraction run.
type ExtractOptions struct {
	UseAI    bool `json:"use_ai"`
	ForceAI  bool `json:"force_ai"`
	MaxPages int  `json:"max_pages,omitempty"`
	MaxChars int  `json:"max_chars,omitempty"`
	FastOnly bool `json:"fast_only,omitempty"` // skip heavy fallbacks (OCR, raster probing)
}
