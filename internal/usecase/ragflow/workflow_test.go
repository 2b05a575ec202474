package ragflow_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/usecase/ragflow"
)

func newWorkflow(llm domain.LLMClient, metrics *fakeMetricsRepo) *ragflow.Workflow {
	log := testLogger()
	return ragflow.NewWorkflow(
		ragflow.NewAnalyzeNode(metrics, &fakeEncoder{}, &fakeChunkSearcher{chunks: sampleChunks()}, llm, 5, log),
		ragflow.NewChartDecisionNode(llm, log),
		ragflow.NewChartNode(metrics, log),
		ragflow.NewExplainNode(llm, log),
		log,
	)
}

func workflowLLM() *scriptedLLM {
	return &scriptedLLM{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "key_metrics"):
			return `{"key_metrics": ["playtime"], "key_segments": ["mode=br"]}`, nil
		case strings.Contains(prompt, "data visualization expert"):
			return `{"chart_type": "bar", "chart_title": "Contributors", "x_axis": "segment_combo", "y_axis": "contribution_value", "filter_sql": "is_outlier = true"}`, nil
		case strings.Contains(prompt, "presenting insights"):
			return "## Summary\nFinal explanation.", nil
		default:
			return "Analysis of the question.", nil
		}
	}}
}

func TestWorkflow_RunsAllStages(t *testing.T) {
	metrics := &fakeMetricsRepo{
		rows: []domain.MetricRow{{MetricName: "playtime", ValueCurrent: ptr(12e6)}},
		chartRows: []map[string]any{
			{"segment_combo": "mode=br", "contribution_value": 0.4},
		},
	}

	workflow := newWorkflow(workflowLLM(), metrics)
	state, err := workflow.Run(context.Background(), &ragflow.State{
		Question:  "What drove playtime?",
		Title:     "bo6_wz2",
		Season:    "Season 3",
		Week:      4,
		EnableRAG: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "Analysis of the question.", state.Analysis)
	assert.Equal(t, "bar", state.ChartType)
	assert.NotEmpty(t, state.SQLQuery)
	assert.Len(t, state.ChartRows, 1)
	assert.Equal(t, "## Summary\nFinal explanation.", state.FinalExplanation)
	assert.NotEmpty(t, state.ReferenceList)
}

func TestWorkflow_EmptyQuestionRejected(t *testing.T) {
	workflow := newWorkflow(workflowLLM(), &fakeMetricsRepo{})
	_, err := workflow.Run(context.Background(), &ragflow.State{})
	assert.Error(t, err)
}

func TestWorkflow_CancellationReturnsPartialState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	llm := workflowLLM()
	inner := llm.respond
	llm.respond = func(prompt string) (string, error) {
		if strings.Contains(prompt, "data visualization expert") {
			// Cancel while the chart decision runs; chart and explain must
			// not execute.
			cancel()
		}
		return inner(prompt)
	}

	metrics := &fakeMetricsRepo{chartRows: []map[string]any{{"segment_combo": "x"}}}
	workflow := newWorkflow(llm, metrics)
	state, err := workflow.Run(ctx, &ragflow.State{Question: "q", EnableRAG: false})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEmpty(t, state.Analysis)
	assert.Empty(t, state.SQLQuery)
	assert.Empty(t, state.FinalExplanation)
}
