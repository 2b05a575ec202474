package ragflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"research-orchestrator/internal/domain"
)

const chartRowLimit = 10

// ChartNode synthesizes a deterministic select over metrics_data from the
// chart decision, executes it, and transforms the rows into a chart config
// plus illustrative analysis code. No model call happens here.
type ChartNode struct {
	metrics domain.MetricsRepository
	logger  *slog.Logger
}

func NewChartNode(metrics domain.MetricsRepository, logger *slog.Logger) *ChartNode {
	return &ChartNode{metrics: metrics, logger: logger}
}

func (n *ChartNode) Run(ctx context.Context, state *State) error {
	filter := domain.MetricsFilter{Title: state.Title, Season: state.Season, Week: state.Week}

	state.SQLQuery = renderSQL(state, filter)

	rows, err := n.metrics.QueryChartRows(ctx, filter, state.XAxis, state.YAxis, state.ChartFilter, chartRowLimit)
	if err != nil {
		// A bad synthesized query yields an empty chart, not a dead workflow.
		n.logger.Warn("chart_query_failed", slog.String("error", err.Error()))
		rows = nil
	}
	state.ChartRows = rows
	state.ChartOption = buildChartOption(state, rows)
	state.PythonCode = renderPythonCode(state)

	n.logger.Info("chart_node_completed",
		slog.String("chart_type", state.ChartType),
		slog.Int("rows", len(rows)))
	return nil
}

// renderSQL produces the display form of the chart query. Execution goes
// through the repository with bound parameters; this string is for the
// client and the generated analysis code.
func renderSQL(state *State, filter domain.MetricsFilter) string {
	conditions := []string{
		fmt.Sprintf("title = '%s'", filter.Title),
		fmt.Sprintf("season = '%s'", filter.Season),
		fmt.Sprintf("week = %d", filter.Week),
	}
	if state.ChartFilter != "" {
		conditions = append(conditions, state.ChartFilter)
	}
	return fmt.Sprintf("SELECT %s, %s\nFROM metrics_data\nWHERE %s\nORDER BY %s\nLIMIT %d",
		state.XAxis, state.YAxis, strings.Join(conditions, " AND "), state.XAxis, chartRowLimit)
}

func buildChartOption(state *State, rows []map[string]any) map[string]any {
	xData := make([]any, 0, len(rows))
	yData := make([]any, 0, len(rows))
	for _, row := range rows {
		xVal := row[state.XAxis]
		if s, ok := xVal.(string); ok {
			// Segment combos read better with separators spelled out.
			xVal = strings.ReplaceAll(strings.ReplaceAll(s, "_", " "), "=", ": ")
		}
		if xVal == nil {
			xVal = "Unknown"
		}
		xData = append(xData, xVal)

		yVal := row[state.YAxis]
		if yVal == nil {
			yVal = 0
		}
		if state.YAxis == "contribution_value" {
			if f, ok := toFloat(yVal); ok {
				yVal = float64(int(f*1000+0.5)) / 10 // percentage, one decimal
			}
		}
		yData = append(yData, yVal)
	}

	option := map[string]any{
		"title": map[string]any{"text": state.ChartTitle, "left": "center"},
		"tooltip": map[string]any{
			"trigger": tooltipTrigger(state.ChartType),
		},
	}

	switch state.ChartType {
	case "pie":
		pieData := make([]map[string]any, 0, len(rows))
		for i := range xData {
			pieData = append(pieData, map[string]any{"name": xData[i], "value": yData[i]})
		}
		option["series"] = []map[string]any{{
			"type":   "pie",
			"radius": []string{"40%", "70%"},
			"data":   pieData,
		}}
	default:
		option["xAxis"] = map[string]any{"type": "category", "data": xData}
		option["yAxis"] = map[string]any{"type": "value", "name": yAxisLabel(state.YAxis)}
		option["series"] = []map[string]any{{
			"type": state.ChartType,
			"data": yData,
		}}
	}
	return option
}

func tooltipTrigger(chartType string) string {
	if chartType == "bar" || chartType == "line" {
		return "axis"
	}
	return "item"
}

func yAxisLabel(yAxis string) string {
	if yAxis == "contribution_value" {
		return "Contribution %"
	}
	return yAxis
}

func renderPythonCode(state *State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `import pandas as pd
import matplotlib.pyplot as plt

sql = """
%s
"""

# df = pd.read_sql(sql, connection)
df = pd.DataFrame(data)

plt.figure(figsize=(12, 6))
`, state.SQLQuery)

	switch state.ChartType {
	case "pie":
		fmt.Fprintf(&sb, "plt.pie(df['%s'], labels=df['%s'], autopct='%%1.1f%%%%')\nplt.title('%s')\n",
			state.YAxis, state.XAxis, state.ChartTitle)
	case "line":
		fmt.Fprintf(&sb, "plt.plot(df['%s'], df['%s'], marker='o')\nplt.title('%s')\nplt.xticks(rotation=45, ha='right')\nplt.tight_layout()\n",
			state.XAxis, state.YAxis, state.ChartTitle)
	default:
		fmt.Fprintf(&sb, "df.plot.bar(x='%s', y='%s', legend=False)\nplt.title('%s')\nplt.xticks(rotation=45, ha='right')\nplt.tight_layout()\n",
			state.XAxis, state.YAxis, state.ChartTitle)
	}

	sb.WriteString("plt.savefig('chart.png', dpi=150, bbox_inches='tight')\nplt.show()\n")
	return sb.String()
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
