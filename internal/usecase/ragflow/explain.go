package ragflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"research-orchestrator/internal/domain"
)

// ExplainNode combines the analysis, the chart data, and (when RAG is on)
// the document references into a structured report. With RAG disabled the
// prompt forbids citing documents and the reference list stays empty.
type ExplainNode struct {
	llm    domain.LLMClient
	logger *slog.Logger
}

func NewExplainNode(llm domain.LLMClient, logger *slog.Logger) *ExplainNode {
	return &ExplainNode{llm: llm, logger: logger}
}

func (n *ExplainNode) Run(ctx context.Context, state *State) error {
	chartSummary := formatChartSummary(state.ChartRows)

	resp, err := n.llm.Generate(ctx, explanationPrompt(state, chartSummary), 1500)
	if err != nil {
		return fmt.Errorf("explanation generation: %w", err)
	}
	state.FinalExplanation = resp.Text

	state.ReferenceList = []string{}
	if state.EnableRAG {
		for _, ref := range state.References {
			state.ReferenceList = append(state.ReferenceList,
				fmt.Sprintf("%s - %s %s Week %d", ref.Source, ref.Title, ref.Season, ref.Week))
		}
	}

	n.logger.Info("explain_node_completed",
		slog.Bool("rag_enabled", state.EnableRAG),
		slog.Int("references", len(state.ReferenceList)))
	return nil
}

func explanationPrompt(state *State, chartSummary string) string {
	var sb strings.Builder

	sb.WriteString(`You are a game analytics expert presenting insights to stakeholders.

Create a clear, comprehensive explanation that:
1. Directly answers the user's question
2. Explains the chart visualization
`)
	if state.EnableRAG {
		sb.WriteString("3. Cites specific data points from metrics AND reports\n")
	} else {
		sb.WriteString("3. Cites specific data points from metrics ONLY\n")
	}
	sb.WriteString(`4. Provides actionable insights

Structure your response with:
- ## Summary (2-3 sentences)
- ## Key Findings (bullet points with data)
- ## Chart Interpretation (what the visualization shows)
- ## Recommendations (if applicable)

Keep it concise but informative. Use actual numbers from the data.`)
	if !state.EnableRAG {
		sb.WriteString(" Do NOT reference any external reports or documents.")
	}

	fmt.Fprintf(&sb, "\n\nQuestion: %s\n\nContext: %s %s Week %d\n\n## Analysis\n%s\n\n## Chart: %s (%s)\n%s\n",
		state.Question, state.Title, state.Season, state.Week,
		state.Analysis, state.ChartTitle, state.ChartType, chartSummary)

	if state.EnableRAG {
		fmt.Fprintf(&sb, "\n## Report References\n%s\n\nPlease provide a comprehensive explanation using both metrics data and report insights.",
			formatReferences(state.References))
	} else {
		sb.WriteString("\nPlease provide a data-driven explanation using ONLY the metrics data shown above.")
	}
	return sb.String()
}

func formatChartSummary(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No data available for chart."
	}

	var lines []string
	for i, row := range rows {
		if i >= 5 {
			break
		}
		segment := "Overall"
		if s, ok := row["segment_combo"].(string); ok && s != "" {
			segment = strings.ReplaceAll(strings.ReplaceAll(s, "_", " "), "=", ": ")
		}
		contribution := "-"
		if f, ok := toFloat(row["contribution_value"]); ok {
			contribution = fmt.Sprintf("%.1f%%", f*100)
		}
		current := "-"
		if f, ok := toFloat(row["value_current"]); ok {
			current = fmt.Sprintf("%.1fM", f/1e6)
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s contribution, %s current", i+1, segment, contribution, current))
	}
	return strings.Join(lines, "\n")
}

func formatReferences(refs []Reference) string {
	if len(refs) == 0 {
		return "No references available."
	}
	var lines []string
	for i, ref := range refs {
		lines = append(lines, fmt.Sprintf("[%d] %s", i+1, ref.Source))
		lines = append(lines, fmt.Sprintf("    %s %s Week %d (%d chunks, similarity %.2f)",
			ref.Title, ref.Season, ref.Week, ref.ChunksUsed, ref.Similarity))
	}
	return strings.Join(lines, "\n")
}
