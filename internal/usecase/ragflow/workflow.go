package ragflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// node is one stage of the analysis workflow.
type node interface {
	Run(ctx context.Context, state *State) error
}

// Workflow runs the four analysis nodes in a fixed linear order over one
// mutable state record. Cancellation between nodes stops the run; the state
// produced so far is returned alongside the error.
type Workflow struct {
	analyze  node
	decision node
	chart    node
	explain  node
	logger   *slog.Logger
}

func NewWorkflow(analyze *AnalyzeNode, decision *ChartDecisionNode, chart *ChartNode, explain *ExplainNode, logger *slog.Logger) *Workflow {
	return &Workflow{
		analyze:  analyze,
		decision: decision,
		chart:    chart,
		explain:  explain,
		logger:   logger,
	}
}

// Run executes the workflow for one question.
func (w *Workflow) Run(ctx context.Context, state *State) (*State, error) {
	if state.Question == "" {
		return state, fmt.Errorf("question must not be empty")
	}

	started := time.Now()
	w.logger.Info("workflow_started",
		slog.String("title", state.Title),
		slog.String("season", state.Season),
		slog.Int("week", state.Week),
		slog.Bool("rag_enabled", state.EnableRAG))

	stages := []struct {
		name string
		node node
	}{
		{"analyze", w.analyze},
		{"chart_decision", w.decision},
		{"chart", w.chart},
		{"explain", w.explain},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			w.logger.Info("workflow_cancelled", slog.String("stage", stage.name))
			return state, err
		}
		if err := stage.node.Run(ctx, state); err != nil {
			w.logger.Error("workflow_stage_failed",
				slog.String("stage", stage.name),
				slog.String("error", err.Error()))
			return state, fmt.Errorf("%s node: %w", stage.name, err)
		}
	}

	w.logger.Info("workflow_completed", slog.Duration("elapsed", time.Since(started)))
	return state, nil
}
