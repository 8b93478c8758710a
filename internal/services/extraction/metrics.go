package extraction

import "github.com/finsight-io/finsight/internal/models"

// MetricComputer derives the standardized ratio set from a reconciled
// field struct. Directly-stated values always beat derived ones; any
// division with a nil or zero denominator yields nil — never a panic,
// never infinity. Percentage results are scaled ×100 at the point of
// derivation, never on the stored raw field.

// ComputeMetrics returns the ratio set keyed by metric code. Absent
// metrics are simply missing from the map.
func ComputeMetrics(f *models.ExtractedFinancials) map[models.MetricCode]float64 {
	metrics := make(map[models.MetricCode]float64)
	if f == nil {
		return metrics
	}

	put := func(code models.MetricCode, v *float64) {
		if v != nil {
			metrics[code] = *v
		}
	}

	// Gross margin: stated value, then gross profit, then revenue − cost.
	switch {
	case present(f.GrossMarginDirect):
		put(models.MetricGrossMargin, f.GrossMarginDirect)
	case f.Revenue != nil && f.GrossProfit != nil:
		put(models.MetricGrossMargin, pctRatio(*f.GrossProfit, *f.Revenue))
	case f.Revenue != nil && f.Cost != nil:
		put(models.MetricGrossMargin, pctRatio(*f.Revenue-*f.Cost, *f.Revenue))
	}

	if present(f.NetMarginDirect) {
		put(models.MetricNetMargin, f.NetMarginDirect)
	} else if f.Revenue != nil && f.NetProfit != nil {
		put(models.MetricNetMargin, pctRatio(*f.NetProfit, *f.Revenue))
	}

	if present(f.ROEDirect) {
		put(models.MetricROE, f.ROEDirect)
	} else if f.TotalEquity != nil && f.NetProfit != nil {
		put(models.MetricROE, pctRatio(*f.NetProfit, *f.TotalEquity))
	}

	if present(f.ROADirect) {
		put(models.MetricROA, f.ROADirect)
	} else if f.TotalAssets != nil && f.NetProfit != nil {
		put(models.MetricROA, pctRatio(*f.NetProfit, *f.TotalAssets))
	}

	if present(f.DebtRatioDirect) {
		put(models.MetricDebtAsset, f.DebtRatioDirect)
	} else if f.TotalAssets != nil && f.TotalLiabilities != nil {
		put(models.MetricDebtAsset, pctRatio(*f.TotalLiabilities, *f.TotalAssets))
	}

	if present(f.CurrentRatioDirect) {
		put(models.MetricCurrentRatio, f.CurrentRatioDirect)
	} else if f.CurrentAssets != nil && f.CurrentLiabilities != nil {
		put(models.MetricCurrentRatio, ratio(*f.CurrentAssets, *f.CurrentLiabilities))
	}

	// Quick ratio: inventory defaults to 0 when absent, it never
	// null-propagates.
	if f.CurrentAssets != nil && f.CurrentLiabilities != nil {
		inventory := 0.0
		if f.Inventory != nil {
			inventory = *f.Inventory
		}
		put(models.MetricQuickRatio, ratio(*f.CurrentAssets-inventory, *f.CurrentLiabilities))
	}

	if f.TotalLiabilities != nil && f.TotalEquity != nil {
		put(models.MetricEquityRatio, ratio(*f.TotalLiabilities, *f.TotalEquity))
	}

	if f.Revenue != nil && f.TotalAssets != nil {
		put(models.MetricAssetTurnover, ratio(*f.Revenue, *f.TotalAssets))
	}
	if f.Cost != nil && f.Inventory != nil {
		put(models.MetricInventoryTurnover, ratio(*f.Cost, *f.Inventory))
	}
	if f.Revenue != nil && f.Receivables != nil {
		put(models.MetricReceivableTurnover, ratio(*f.Revenue, *f.Receivables))
	}

	return metrics
}

// present reports a stated ratio that is usable: extraction never accepts
// an exactly-zero direct ratio, so zero here means "not stated".
func present(v *float64) bool {
	return v != nil && *v != 0
}

// ratio divides, yielding nil on a zero denominator.
func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// pctRatio divides and scales to percent.
func pctRatio(num, den float64) *float64 {
	v := ratio(num, den)
	if v == nil {
		return nil
	}
	p := *v * 100
	return &p
}
