// Package alert evaluates rule-based alerts over a computed metric set.
package alert

import (
	"fmt"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/models"
)

// Alert thresholds. Tunable; values follow common credit-analysis bands.
const (
	debtAssetWarn     = 60.0
	debtAssetCritical = 70.0
	netMarginThin     = 3.0
	currentRatioFloor = 1.0
	quickRatioFloor   = 0.5
	roeWeak           = 5.0
)

// rule maps one metric to an alert when its predicate fires.
type rule struct {
	code    string
	metric  models.MetricCode
	level   models.AlertLevel
	applies func(v float64) bool
	message func(v float64) string
}

var rules = []rule{
	{
		code: "HIGH_LEVERAGE", metric: models.MetricDebtAsset, level: models.AlertCritical,
		applies: func(v float64) bool { return v > debtAssetCritical },
		message: func(v float64) string {
			return fmt.Sprintf("debt-to-asset ratio %.1f%% exceeds %.0f%%, solvency risk", v, debtAssetCritical)
		},
	},
	{
		code: "ELEVATED_LEVERAGE", metric: models.MetricDebtAsset, level: models.AlertWarn,
		applies: func(v float64) bool { return v > debtAssetWarn && v <= debtAssetCritical },
		message: func(v float64) string {
			return fmt.Sprintf("debt-to-asset ratio %.1f%% above %.0f%%", v, debtAssetWarn)
		},
	},
	{
		code: "NET_LOSS", metric: models.MetricNetMargin, level: models.AlertCritical,
		applies: func(v float64) bool { return v < 0 },
		message: func(v float64) string {
			return fmt.Sprintf("net margin %.1f%% — the company is loss-making", v)
		},
	},
	{
		code: "THIN_MARGIN", metric: models.MetricNetMargin, level: models.AlertWarn,
		applies: func(v float64) bool { return v >= 0 && v < netMarginThin },
		message: func(v float64) string {
			return fmt.Sprintf("net margin %.1f%% below %.0f%%", v, netMarginThin)
		},
	},
	{
		code: "LIQUIDITY_STRAIN", metric: models.MetricCurrentRatio, level: models.AlertWarn,
		applies: func(v float64) bool { return v < currentRatioFloor },
		message: func(v float64) string {
			return fmt.Sprintf("current ratio %.2f below %.1f, short-term obligations exceed current assets", v, currentRatioFloor)
		},
	},
	{
		code: "QUICK_LIQUIDITY_STRAIN", metric: models.MetricQuickRatio, level: models.AlertWarn,
		applies: func(v float64) bool { return v < quickRatioFloor },
		message: func(v float64) string {
			return fmt.Sprintf("quick ratio %.2f below %.1f", v, quickRatioFloor)
		},
	},
	{
		code: "WEAK_RETURNS", metric: models.MetricROE, level: models.AlertInfo,
		applies: func(v float64) bool { return v >= 0 && v < roeWeak },
		message: func(v float64) string {
			return fmt.Sprintf("return on equity %.1f%% below %.0f%%", v, roeWeak)
		},
	},
}

// Service evaluates the rule table.
type Service struct {
	logger *common.Logger
}

// NewService creates an alert service.
func NewService(logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{logger: logger}
}

// Evaluate runs every rule against the metric set. Metrics absent from the
// set never fire: missing data is not a risk signal by itself.
func (s *Service) Evaluate(metrics []models.StandardizedMetric) []models.Alert {
	byCode := make(map[models.MetricCode]float64, len(metrics))
	for _, m := range metrics {
		byCode[m.Code] = m.Value
	}

	var alerts []models.Alert
	for _, r := range rules {
		v, ok := byCode[r.metric]
		if !ok || !r.applies(v) {
			continue
		}
		alerts = append(alerts, models.Alert{
			Code:    r.code,
			Level:   r.level,
			Metric:  r.metric,
			Value:   v,
			Message: r.message(v),
		})
	}

	if len(alerts) > 0 {
		s.logger.Debug().Int("count", len(alerts)).Msg("Alerts raised")
	}
	return alerts
}
