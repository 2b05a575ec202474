package augur

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"research-orchestrator/internal/domain"
)

// summaryFormat constrains the model output to the two fields the webpage
// summary needs. The schema rides in the request's format field so the model
// server enforces it.
var summaryFormat = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{
			"type": "string",
		},
		"key_excerpts": map[string]any{
			"type": "string",
		},
	},
	"required": []string{"summary", "key_excerpts"},
}

const summaryPromptTemplate = `You are summarizing a webpage that was retrieved while researching a topic.
Today's date is %s.

Produce:
- "summary": a dense summary of the page's substantive content, preserving concrete facts, figures and dates.
- "key_excerpts": the most important verbatim passages, separated by newlines.

Webpage content:
%s`

// Summarizer turns crawled page content into a structured summary via the
// model server's schema-constrained output. Malformed output is retried a
// bounded number of times before the caller falls back to raw content.
type Summarizer struct {
	BaseURL    string
	ModelID    string
	MaxTokens  int
	MaxRetries int
	Client     *http.Client
	Logger     *slog.Logger
}

func NewSummarizer(baseURL, modelID string, maxTokens, maxRetries int, client *http.Client, logger *slog.Logger) *Summarizer {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Summarizer{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ModelID:    modelID,
		MaxTokens:  maxTokens,
		MaxRetries: maxRetries,
		Client:     client,
		Logger:     logger,
	}
}

// Summarize produces a structured summary of pageContent. date is the
// human-readable current date injected into the prompt.
func (s *Summarizer) Summarize(ctx context.Context, pageContent string, date string) (*domain.Summary, error) {
	prompt := fmt.Sprintf(summaryPromptTemplate, date, pageContent)

	reqBody := chatRequest{
		Model:     modelName(s.ModelID),
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Stream:    false,
		KeepAlive: -1,
		Format:    summaryFormat,
		Options: map[string]any{
			"temperature": 0.0,
		},
	}
	if s.MaxTokens > 0 {
		reqBody.Options["num_predict"] = s.MaxTokens
	}

	var lastErr error
	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		resp, err := postChat(ctx, s.Client, s.BaseURL, s.ModelID, reqBody)
		if err != nil {
			return nil, err
		}

		var summary domain.Summary
		if err := json.Unmarshal([]byte(resp.Message.Content), &summary); err != nil {
			lastErr = fmt.Errorf("structured output attempt %d: %w", attempt, err)
			s.Logger.Warn("summarize_structured_output_invalid",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}
		if strings.TrimSpace(summary.Summary) == "" {
			lastErr = fmt.Errorf("structured output attempt %d: empty summary field", attempt)
			continue
		}
		return &summary, nil
	}
	return nil, fmt.Errorf("structured summary failed after %d attempts: %w", s.MaxRetries, lastErr)
}

// Model returns the summarization model identifier, provider prefix included.
func (s *Summarizer) Model() string {
	return s.ModelID
}

// modelName strips an optional provider prefix like "ollama:" for the wire
// request, which wants the bare model name.
func modelName(model string) string {
	if _, name, ok := strings.Cut(model, ":"); ok {
		return name
	}
	return model
}

var _ domain.SummarizerClient = (*Summarizer)(nil)
