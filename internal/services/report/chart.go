package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/finsight-io/finsight/internal/models"
)

// RenderMetricsChart renders a PNG bar chart of the percentage-typed
// metrics in a report. Returns raw PNG bytes.
func RenderMetricsChart(report *models.AnalysisReport) ([]byte, error) {
	var bars []chart.Value
	for _, m := range report.Metrics {
		if m.Unit != "%" {
			continue
		}
		bars = append(bars, chart.Value{
			Label: m.Name,
			Value: m.Value,
			Style: chart.Style{
				FillColor:   barColor(m.Value),
				StrokeColor: barColor(m.Value),
			},
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("report has no percentage metrics to chart")
	}

	title := "Financial Ratios"
	if report.Company != "" {
		title = report.Company + " — Financial Ratios"
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    900,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// barColor keeps negative values visually distinct.
func barColor(v float64) drawing.Color {
	if v < 0 {
		return drawing.ColorFromHex("dc2626") // red-600
	}
	return drawing.ColorFromHex("2563eb") // blue-600
}
