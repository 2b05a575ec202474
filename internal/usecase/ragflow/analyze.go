package ragflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"research-orchestrator/internal/domain"
)

// AnalyzeNode fetches structured metrics, optionally augments them with
// vector-retrieved report chunks, and asks the model for an analysis plus
// the key metrics and segments driving the question.
type AnalyzeNode struct {
	metrics domain.MetricsRepository
	encoder domain.VectorEncoder
	chunks  domain.ReportChunkSearcher
	llm     domain.LLMClient
	topK    int
	logger  *slog.Logger
}

func NewAnalyzeNode(
	metrics domain.MetricsRepository,
	encoder domain.VectorEncoder,
	chunks domain.ReportChunkSearcher,
	llm domain.LLMClient,
	topK int,
	logger *slog.Logger,
) *AnalyzeNode {
	if topK <= 0 {
		topK = 5
	}
	return &AnalyzeNode{
		metrics: metrics,
		encoder: encoder,
		chunks:  chunks,
		llm:     llm,
		topK:    topK,
		logger:  logger,
	}
}

func (n *AnalyzeNode) Run(ctx context.Context, state *State) error {
	filter := domain.MetricsFilter{Title: state.Title, Season: state.Season, Week: state.Week}
	metrics, err := n.metrics.GetMetrics(ctx, filter)
	if err != nil {
		return fmt.Errorf("fetch metrics: %w", err)
	}
	metricsContext := formatMetricsContext(metrics)

	if state.EnableRAG {
		if err := n.retrieveChunks(ctx, state); err != nil {
			// Retrieval failure degrades to metrics-only analysis.
			n.logger.Warn("rag_retrieval_failed", slog.String("error", err.Error()))
			state.RAGContext = ""
			state.References = nil
		}
	}

	reportContext := "(RAG disabled)"
	if state.EnableRAG && state.RAGContext != "" {
		reportContext = state.RAGContext
	}

	analysis, err := n.llm.Generate(ctx, analysisPrompt(state.Question, metricsContext, reportContext), 1500)
	if err != nil {
		return fmt.Errorf("analysis generation: %w", err)
	}
	state.Analysis = analysis.Text

	n.extractIntent(ctx, state, metricsContext)

	n.logger.Info("analyze_node_completed",
		slog.Int("metric_rows", len(metrics)),
		slog.Int("references", len(state.References)),
		slog.Bool("rag_enabled", state.EnableRAG))
	return nil
}

// retrieveChunks embeds the question and aggregates the top matching report
// chunks into a combined context, tracking unique documents for citations.
func (n *AnalyzeNode) retrieveChunks(ctx context.Context, state *State) error {
	embeddings, err := n.encoder.Encode(ctx, []string{state.Question})
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("embedder returned no vectors")
	}

	// Chunks are small, so fetch twice the document budget.
	chunks, err := n.chunks.SearchChunks(ctx, embeddings[0], state.Title, state.Season, n.topK*2)
	if err != nil {
		return fmt.Errorf("chunk search: %w", err)
	}

	var sb strings.Builder
	seen := map[string]int{}
	for _, chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n\n--- [%s] %s %s Week %d (chunk %d/%d, similarity: %.2f) ---\n%s",
			chunk.Source, chunk.Title, chunk.Season, chunk.Week,
			chunk.ChunkIndex, chunk.TotalChunks, chunk.Similarity, chunk.Content)

		key := fmt.Sprintf("%s_%s_%s_%d", chunk.Source, chunk.Title, chunk.Season, chunk.Week)
		if idx, ok := seen[key]; ok {
			state.References[idx].ChunksUsed++
			continue
		}
		seen[key] = len(state.References)
		state.References = append(state.References, Reference{
			Source:     chunk.Source,
			Title:      chunk.Title,
			Season:     chunk.Season,
			Week:       chunk.Week,
			Similarity: chunk.Similarity,
			ChunksUsed: 1,
		})
	}
	state.RAGContext = sb.String()

	n.logger.Info("rag_retrieval_completed",
		slog.Int("chunks", len(chunks)),
		slog.Int("unique_documents", len(state.References)))
	return nil
}

// extractIntent asks the model which metrics and segments matter. Parse
// failures leave the lists empty; later nodes have their own defaults.
func (n *AnalyzeNode) extractIntent(ctx context.Context, state *State, metricsContext string) {
	prompt := fmt.Sprintf(`Identify which metrics and segments are most relevant to this question.

Question: %s

Metrics data:
%s

Respond with JSON only: {"key_metrics": ["..."], "key_segments": ["..."]}`, state.Question, metricsContext)

	resp, err := n.llm.Generate(ctx, prompt, 300)
	if err != nil {
		n.logger.Warn("intent_extraction_failed", slog.String("error", err.Error()))
		return
	}

	var intent struct {
		KeyMetrics  []string `json:"key_metrics"`
		KeySegments []string `json:"key_segments"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Text)), &intent); err != nil {
		n.logger.Warn("intent_extraction_unparseable", slog.String("error", err.Error()))
		return
	}
	state.KeyMetrics = intent.KeyMetrics
	state.KeySegments = intent.KeySegments
}

func analysisPrompt(question, metricsContext, reportContext string) string {
	return fmt.Sprintf(`You are a game analytics expert. Analyze the user's question using the provided data and reports.

Provide a clear, structured analysis that:
1. Directly answers the question
2. Cites specific data points from the metrics
3. References report insights when report context is present
4. Identifies key drivers and patterns

Keep the response concise but comprehensive.

Question: %s

## Metrics Data
%s

## Report Context
%s

Please analyze and answer the question.`, question, metricsContext, reportContext)
}

// formatMetricsContext renders metric rows as a markdown table, capped to
// keep the prompt inside the model window.
func formatMetricsContext(metrics []domain.MetricRow) string {
	if len(metrics) == 0 {
		return "No metrics data available."
	}

	var sb strings.Builder
	sb.WriteString("| Metric | Segment | Current | Previous | Delta | Outlier |\n")
	sb.WriteString("|--------|---------|---------|----------|-------|---------|\n")
	for i, m := range metrics {
		if i >= 20 {
			break
		}
		segment := m.SegmentCombo
		if segment == "" {
			segment = "Overall"
		}
		outlier := ""
		if m.IsOutlier {
			outlier = "yes"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			m.MetricName, segment,
			formatMillions(m.ValueCurrent, false),
			formatMillions(m.ValuePrevious, false),
			formatMillions(m.ValueDelta, true),
			outlier)
	}
	return sb.String()
}

func formatMillions(value *float64, signed bool) string {
	if value == nil {
		return "-"
	}
	if signed {
		return fmt.Sprintf("%+.1fM", *value/1e6)
	}
	return fmt.Sprintf("%.1fM", *value/1e6)
}

// stripJSONFences removes markdown code fences some models wrap around JSON.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
