package extraction

import "github.com/finsight-io/finsight/internal/models"

// PlausibilityFilter: range checks applied before anything is persisted.
// A value outside its band is dropped, never clamped — an absent metric
// beats a misleading one.

// IsReasonable reports whether a metric value falls within the plausible
// band for its kind.
func IsReasonable(code models.MetricCode, value float64) bool {
	switch code {
	case models.MetricGrossMargin, models.MetricNetMargin, models.MetricDebtAsset:
		// tight percentage band
		return value >= -50 && value <= 100
	case models.MetricROE, models.MetricROA:
		// returns can legitimately exceed 100% for high-leverage firms
		return value >= -200 && value <= 500
	case models.MetricCurrentRatio, models.MetricQuickRatio, models.MetricEquityRatio:
		return value >= 0 && value <= 50
	case models.MetricAssetTurnover, models.MetricInventoryTurnover, models.MetricReceivableTurnover:
		return value >= 0 && value <= 1000
	}
	// raw pass-through amounts carry no range contract
	return true
}
