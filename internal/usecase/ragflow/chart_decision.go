package ragflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"research-orchestrator/internal/domain"
)

var validChartTypes = map[string]bool{
	"bar":     true,
	"line":    true,
	"pie":     true,
	"scatter": true,
}

// ChartDecisionNode asks the model which visualization fits the question.
// Any parse or validation failure falls back to a bar chart over the top
// contributing segments, so the workflow never stalls here.
type ChartDecisionNode struct {
	llm    domain.LLMClient
	logger *slog.Logger
}

func NewChartDecisionNode(llm domain.LLMClient, logger *slog.Logger) *ChartDecisionNode {
	return &ChartDecisionNode{llm: llm, logger: logger}
}

func (n *ChartDecisionNode) Run(ctx context.Context, state *State) error {
	prompt := chartDecisionPrompt(state)

	resp, err := n.llm.Generate(ctx, prompt, 500)
	if err != nil {
		n.logger.Warn("chart_decision_model_failed", slog.String("error", err.Error()))
		n.applyDefault(state)
		return nil
	}

	var decision struct {
		ChartType  string `json:"chart_type"`
		ChartTitle string `json:"chart_title"`
		XAxis      string `json:"x_axis"`
		YAxis      string `json:"y_axis"`
		FilterSQL  string `json:"filter_sql"`
		Reasoning  string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Text)), &decision); err != nil {
		n.logger.Warn("chart_decision_unparseable", slog.String("error", err.Error()))
		n.applyDefault(state)
		return nil
	}
	if !validChartTypes[decision.ChartType] {
		n.logger.Warn("chart_decision_invalid_type", slog.String("chart_type", decision.ChartType))
		n.applyDefault(state)
		return nil
	}

	state.ChartType = decision.ChartType
	state.ChartTitle = defaultIfEmpty(decision.ChartTitle, "Chart")
	state.XAxis = defaultIfEmpty(decision.XAxis, "segment_combo")
	state.YAxis = defaultIfEmpty(decision.YAxis, "contribution_value")
	state.ChartFilter = decision.FilterSQL

	n.logger.Info("chart_decision_completed",
		slog.String("chart_type", state.ChartType),
		slog.String("chart_title", state.ChartTitle))
	return nil
}

func (n *ChartDecisionNode) applyDefault(state *State) {
	state.ChartType = "bar"
	state.ChartTitle = fmt.Sprintf("Top Contributors - %s Week %d", state.Season, state.Week)
	state.XAxis = "segment_combo"
	state.YAxis = "contribution_value"
	state.ChartFilter = "is_outlier = true"
}

func chartDecisionPrompt(state *State) string {
	return fmt.Sprintf(`You are a data visualization expert. Based on the user's question and analysis, decide the best chart type and configuration.

Available chart types:
- bar: for comparing categories (segments, modes)
- line: for trends over time
- pie: for showing proportions
- scatter: for correlations

Available fields in the database: metric_name, segment_combo, value_current, value_previous, value_delta, contribution_value, is_outlier, outlier_type, week

Respond with JSON only:
{
    "chart_type": "bar|line|pie|scatter",
    "chart_title": "Title for the chart",
    "x_axis": "field name for x-axis",
    "y_axis": "field name for y-axis (usually value_current or contribution_value)",
    "filter_sql": "single comparison filter, e.g. 'is_outlier = true', or empty",
    "reasoning": "brief explanation"
}

Question: %s

Analysis: %s

Key metrics: %s
Key segments: %s

Context: %s %s Week %d

What chart should we show?`,
		state.Question, state.Analysis,
		strings.Join(state.KeyMetrics, ", "), strings.Join(state.KeySegments, ", "),
		state.Title, state.Season, state.Week)
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
