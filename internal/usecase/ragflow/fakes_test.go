package ragflow_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"research-orchestrator/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

// scriptedLLM routes each prompt through respond and records the prompts it
// saw for assertions.
type scriptedLLM struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	text, err := l.respond(prompt)
	if err != nil {
		return nil, err
	}
	return &domain.LLMResponse{Text: text, Done: true}, nil
}

func (l *scriptedLLM) Version() string { return "fake-llm" }

type fakeMetricsRepo struct {
	rows      []domain.MetricRow
	chartRows []map[string]any
	chartErr  error

	lastXField      string
	lastYField      string
	lastExtraFilter string
}

func (r *fakeMetricsRepo) GetMetrics(ctx context.Context, filter domain.MetricsFilter) ([]domain.MetricRow, error) {
	return r.rows, nil
}

func (r *fakeMetricsRepo) QueryChartRows(ctx context.Context, filter domain.MetricsFilter, xField, yField, extraFilter string, limit int) ([]map[string]any, error) {
	r.lastXField = xField
	r.lastYField = yField
	r.lastExtraFilter = extraFilter
	if r.chartErr != nil {
		return nil, r.chartErr
	}
	return r.chartRows, nil
}

func (r *fakeMetricsRepo) GetFilterValues(ctx context.Context) (*domain.FilterValues, error) {
	return &domain.FilterValues{}, nil
}

type fakeEncoder struct {
	err    error
	called bool
}

func (e *fakeEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	e.called = true
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (e *fakeEncoder) Version() string { return "fake-encoder" }

type fakeChunkSearcher struct {
	chunks []domain.ReportChunk
	err    error
}

func (s *fakeChunkSearcher) SearchChunks(ctx context.Context, embedding []float32, title, season string, topK int) ([]domain.ReportChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}
