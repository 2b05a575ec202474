package ragflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-orchestrator/internal/usecase/ragflow"
)

func chartState() *ragflow.State {
	return &ragflow.State{
		Question:    "q",
		Title:       "bo6_wz2",
		Season:      "Season 3",
		Week:        4,
		ChartType:   "bar",
		ChartTitle:  "Top Contributors",
		XAxis:       "segment_combo",
		YAxis:       "contribution_value",
		ChartFilter: "is_outlier = true",
	}
}

func TestChartNode_BuildsBarOption(t *testing.T) {
	metrics := &fakeMetricsRepo{chartRows: []map[string]any{
		{"segment_combo": "mode=resurgence_map=rebirth", "contribution_value": 0.421},
		{"segment_combo": "mode=br", "contribution_value": 0.173},
	}}
	state := chartState()

	require.NoError(t, ragflow.NewChartNode(metrics, testLogger()).Run(context.Background(), state))

	assert.Equal(t, "segment_combo", metrics.lastXField)
	assert.Equal(t, "contribution_value", metrics.lastYField)
	assert.Equal(t, "is_outlier = true", metrics.lastExtraFilter)

	xAxis := state.ChartOption["xAxis"].(map[string]any)
	assert.Equal(t, []any{"mode: resurgence map: rebirth", "mode: br"}, xAxis["data"])

	series := state.ChartOption["series"].([]map[string]any)
	require.Len(t, series, 1)
	assert.Equal(t, "bar", series[0]["type"])
	// Contribution values render as percentages with one decimal.
	assert.Equal(t, []any{42.1, 17.3}, series[0]["data"])
}

func TestChartNode_PieOption(t *testing.T) {
	metrics := &fakeMetricsRepo{chartRows: []map[string]any{
		{"segment_combo": "mode=br", "value_current": 9.0e6},
	}}
	state := chartState()
	state.ChartType = "pie"
	state.YAxis = "value_current"

	require.NoError(t, ragflow.NewChartNode(metrics, testLogger()).Run(context.Background(), state))

	assert.NotContains(t, state.ChartOption, "xAxis")
	series := state.ChartOption["series"].([]map[string]any)
	data := series[0]["data"].([]map[string]any)
	require.Len(t, data, 1)
	assert.Equal(t, "mode: br", data[0]["name"])
	assert.Equal(t, 9.0e6, data[0]["value"])
}

func TestChartNode_QueryFailureYieldsEmptyChart(t *testing.T) {
	metrics := &fakeMetricsRepo{chartErr: errors.New("bad field")}
	state := chartState()

	require.NoError(t, ragflow.NewChartNode(metrics, testLogger()).Run(context.Background(), state))

	assert.Empty(t, state.ChartRows)
	assert.NotNil(t, state.ChartOption)
	assert.NotEmpty(t, state.SQLQuery)
}

func TestChartNode_RendersDisplaySQL(t *testing.T) {
	state := chartState()

	require.NoError(t, ragflow.NewChartNode(&fakeMetricsRepo{}, testLogger()).Run(context.Background(), state))

	assert.Contains(t, state.SQLQuery, "SELECT segment_combo, contribution_value")
	assert.Contains(t, state.SQLQuery, "title = 'bo6_wz2'")
	assert.Contains(t, state.SQLQuery, "week = 4")
	assert.Contains(t, state.SQLQuery, "is_outlier = true")
	assert.Contains(t, state.SQLQuery, "LIMIT 10")
	assert.Contains(t, state.PythonCode, "matplotlib")
}
