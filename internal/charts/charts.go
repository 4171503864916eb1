// Package charts renders query metrics as interactive HTML charts.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/palico-bot/internal/metrics"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Width  string   // Chart width (e.g., "900px")
	Height string   // Chart height (e.g., "400px")
	Theme  string   // Chart theme
	Colors []string // Series colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "900px",
		Height: "400px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272"},
	}
}

// DataPoint represents a single bar.
type DataPoint struct {
	Label string
	Value float64
}

// OutcomePoints lists query counts per outcome in a fixed order.
func OutcomePoints(stats metrics.QueryStats) []DataPoint {
	return []DataPoint{
		{Label: "Sets", Value: float64(stats.Sets)},
		{Label: "Pieces", Value: float64(stats.Pieces)},
		{Label: "No results", Value: float64(stats.NoResults)},
		{Label: "Unsupported", Value: float64(stats.Unsupported)},
		{Label: "Not ready", Value: float64(stats.NotReady)},
		{Label: "Errors", Value: float64(stats.Errors)},
	}
}

// LatencyPoints lists resolve latency percentiles in milliseconds.
func LatencyPoints(stats metrics.QueryStats) []DataPoint {
	return []DataPoint{
		{Label: "p50", Value: stats.Latency.P50},
		{Label: "p95", Value: stats.Latency.P95},
		{Label: "p99", Value: stats.Latency.P99},
		{Label: "max", Value: stats.Latency.Max},
	}
}

// NewBarChart builds a single-series bar chart.
func NewBarChart(title, subtitle, series string, data []DataPoint, config ChartConfig) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	)

	xLabels := make([]string, len(data))
	yData := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
	}

	bar.SetXAxis(xLabels).
		AddSeries(series, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)

	return bar
}

// RenderQueryPage writes an HTML page with the outcome and latency charts.
func RenderQueryPage(w io.Writer, stats metrics.QueryStats, config ChartConfig) error {
	subtitle := fmt.Sprintf("%d queries, %.0f%% hit rate, up %s", stats.Queries, stats.HitRate, stats.Uptime)

	page := components.NewPage()
	page.AddCharts(
		NewBarChart("Query outcomes", subtitle, "Queries", OutcomePoints(stats), config),
		NewBarChart("Resolve latency (ms)", fmt.Sprintf("%d samples", stats.Latency.Count), "Latency", LatencyPoints(stats), config),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart page: %w", err)
	}
	return nil
}
