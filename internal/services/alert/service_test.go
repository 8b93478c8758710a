package alert

import (
	"testing"

	"github.com/finsight-io/finsight/internal/models"
)

func metric(code models.MetricCode, v float64) models.StandardizedMetric {
	return models.StandardizedMetric{Code: code, Value: v}
}

func levelsByCode(alerts []models.Alert) map[string]models.AlertLevel {
	out := make(map[string]models.AlertLevel, len(alerts))
	for _, a := range alerts {
		out[a.Code] = a.Level
	}
	return out
}

func TestEvaluate_HighLeverage(t *testing.T) {
	svc := NewService(nil)

	alerts := svc.Evaluate([]models.StandardizedMetric{metric(models.MetricDebtAsset, 75)})
	got := levelsByCode(alerts)
	if got["HIGH_LEVERAGE"] != models.AlertCritical {
		t.Errorf("debt/asset 75%% should raise critical HIGH_LEVERAGE, got %v", alerts)
	}
	if _, ok := got["ELEVATED_LEVERAGE"]; ok {
		t.Errorf("critical and warn leverage alerts must be mutually exclusive")
	}

	alerts = svc.Evaluate([]models.StandardizedMetric{metric(models.MetricDebtAsset, 65)})
	got = levelsByCode(alerts)
	if got["ELEVATED_LEVERAGE"] != models.AlertWarn {
		t.Errorf("debt/asset 65%% should raise warn ELEVATED_LEVERAGE, got %v", alerts)
	}
}

func TestEvaluate_MarginAlerts(t *testing.T) {
	svc := NewService(nil)

	got := levelsByCode(svc.Evaluate([]models.StandardizedMetric{metric(models.MetricNetMargin, -2)}))
	if got["NET_LOSS"] != models.AlertCritical {
		t.Errorf("negative net margin should be critical NET_LOSS")
	}

	got = levelsByCode(svc.Evaluate([]models.StandardizedMetric{metric(models.MetricNetMargin, 1.5)}))
	if got["THIN_MARGIN"] != models.AlertWarn {
		t.Errorf("1.5%% net margin should be warn THIN_MARGIN")
	}
	if _, ok := got["NET_LOSS"]; ok {
		t.Errorf("positive margin must not raise NET_LOSS")
	}
}

func TestEvaluate_LiquidityAndReturns(t *testing.T) {
	svc := NewService(nil)

	alerts := svc.Evaluate([]models.StandardizedMetric{
		metric(models.MetricCurrentRatio, 0.8),
		metric(models.MetricQuickRatio, 0.4),
		metric(models.MetricROE, 3),
	})
	got := levelsByCode(alerts)

	if got["LIQUIDITY_STRAIN"] != models.AlertWarn {
		t.Errorf("current ratio 0.8 should warn")
	}
	if got["QUICK_LIQUIDITY_STRAIN"] != models.AlertWarn {
		t.Errorf("quick ratio 0.4 should warn")
	}
	if got["WEAK_RETURNS"] != models.AlertInfo {
		t.Errorf("ROE 3%% should be an info alert")
	}
}

func TestEvaluate_HealthyMetricsRaiseNothing(t *testing.T) {
	svc := NewService(nil)

	alerts := svc.Evaluate([]models.StandardizedMetric{
		metric(models.MetricDebtAsset, 35),
		metric(models.MetricNetMargin, 18),
		metric(models.MetricCurrentRatio, 2.1),
		metric(models.MetricQuickRatio, 1.4),
		metric(models.MetricROE, 22),
	})
	if len(alerts) != 0 {
		t.Errorf("healthy metrics raised alerts: %v", alerts)
	}
}

func TestEvaluate_MissingMetricsNeverFire(t *testing.T) {
	svc := NewService(nil)
	if alerts := svc.Evaluate(nil); len(alerts) != 0 {
		t.Errorf("no metrics should mean no alerts, got %v", alerts)
	}
}

func TestEvaluate_AlertCarriesMetricValue(t *testing.T) {
	svc := NewService(nil)
	alerts := svc.Evaluate([]models.StandardizedMetric{metric(models.MetricDebtAsset, 82.5)})
	if len(alerts) != 1 {
		t.Fatalf("want exactly one alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Metric != models.MetricDebtAsset || a.Value != 82.5 || a.Message == "" {
		t.Errorf("alert missing context: %+v", a)
	}
}
