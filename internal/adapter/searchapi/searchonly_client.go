package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"research-orchestrator/internal/domain"
)

// searchOnlyRequest is the wire payload of the search-only backend. Field
// names are part of the backend contract and must not drift.
type searchOnlyRequest struct {
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeImages     bool     `json:"include_images"`
	SearchDepth       string   `json:"search_depth"`
	Language          string   `json:"language"`
	Categories        []string `json:"categories"`
	TimeRange         string   `json:"time_range,omitempty"`
	DateFrom          string   `json:"date_from,omitempty"`
	DateTo            string   `json:"date_to,omitempty"`
	Days              int      `json:"days,omitempty"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
	Engines           []string `json:"engines,omitempty"`
	Safesearch        string   `json:"safesearch,omitempty"`
	LLMProvider       string   `json:"llm_provider,omitempty"`
	LLMModel          string   `json:"llm_model,omitempty"`
	AnswerMaxTokens   int      `json:"answer_max_tokens,omitempty"`
	AnswerTemperature *float64 `json:"answer_temperature,omitempty"`
	AnswerContextSize int      `json:"answer_context_size,omitempty"`
	Timeout           int      `json:"timeout,omitempty"`
	APIKey            string   `json:"api_key,omitempty"`
}

// SearchOnlyClient calls a self-hosted search endpoint that returns engine
// summaries and optional img_src hints but no full page content. The crawl
// enrichment pass runs after it.
type SearchOnlyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewSearchOnlyClient(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *SearchOnlyClient {
	if client == nil {
		client = &http.Client{Timeout: 300 * time.Second}
	}
	return &SearchOnlyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

func (c *SearchOnlyClient) Name() string { return "search-only" }

func (c *SearchOnlyClient) CrawlsContent() bool { return false }

func (c *SearchOnlyClient) Close() { c.client.CloseIdleConnections() }

// Search executes one query with the full parameter surface. Transport and
// HTTP failures come back as an error envelope, never as a Go error.
func (c *SearchOnlyClient) Search(ctx context.Context, query domain.SearchQuery, opts domain.SearchOptions) domain.BackendResponse {
	payload := searchOnlyRequest{
		Query:             query.Text,
		MaxResults:        query.MaxResults,
		IncludeRawContent: query.IncludeRawContent,
		IncludeAnswer:     opts.IncludeAnswer,
		IncludeImages:     opts.IncludeImages,
		SearchDepth:       defaultString(opts.SearchDepth, "basic"),
		Language:          defaultString(opts.Language, "en"),
		Categories:        categoriesForTopic(query.Topic, opts.Categories),
		DateFrom:          opts.DateFrom,
		DateTo:            opts.DateTo,
		Days:              opts.Days,
		IncludeDomains:    opts.IncludeDomains,
		ExcludeDomains:    opts.ExcludeDomains,
		Engines:           opts.Engines,
		Safesearch:        opts.Safesearch,
		Timeout:           opts.TimeoutSeconds,
	}

	payload.TimeRange = opts.TimeRange
	if payload.TimeRange == "" && noExplicitTimeWindow(opts) && (query.Topic == domain.TopicNews || query.Topic == domain.TopicFinance) {
		// News and finance default to recent results.
		payload.TimeRange = "month"
	}

	if opts.IncludeAnswer {
		payload.LLMProvider = opts.LLMProvider
		payload.LLMModel = opts.LLMModel
		payload.AnswerMaxTokens = opts.AnswerMaxTokens
		payload.AnswerTemperature = opts.AnswerTemperature
		payload.AnswerContextSize = opts.AnswerContextSize
	}
	if opts.APIKey != "" {
		payload.APIKey = opts.APIKey
	} else if c.apiKey != "" {
		payload.APIKey = c.apiKey
	}

	return postSearch(ctx, c.client, c.baseURL, payload, query.Text, 300.0, c.logger)
}

// categoriesForTopic maps the coarse topic onto backend categories. The
// backend has no finance category, so finance rides on news.
func categoriesForTopic(topic domain.Topic, override []string) []string {
	if len(override) > 0 {
		return override
	}
	switch topic {
	case domain.TopicNews, domain.TopicFinance:
		return []string{"news"}
	default:
		return []string{"general"}
	}
}

func noExplicitTimeWindow(opts domain.SearchOptions) bool {
	return opts.TimeRange == "" && opts.DateFrom == "" && opts.DateTo == "" && opts.Days == 0
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// postSearch posts the payload and normalizes every failure mode into the
// response envelope.
func postSearch(ctx context.Context, client *http.Client, url string, payload any, queryText string, timeoutSeconds float64, logger *slog.Logger) domain.BackendResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		return errorEnvelope(queryText, fmt.Sprintf("Unexpected error: %v", err), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errorEnvelope(queryText, fmt.Sprintf("Unexpected error: %v", err), 0)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			logger.Warn("search_request_timeout", slog.String("query", queryText), slog.String("url", url))
			return errorEnvelope(queryText, fmt.Sprintf("Request timeout: %v", err), timeoutSeconds)
		}
		logger.Warn("search_request_failed", slog.String("query", queryText), slog.String("error", err.Error()))
		return errorEnvelope(queryText, fmt.Sprintf("Unexpected error: %v", err), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warn("search_request_http_error",
			slog.String("query", queryText),
			slog.Int("status", resp.StatusCode))
		return errorEnvelope(queryText, fmt.Sprintf("HTTP error %d: %s", resp.StatusCode, string(snippet)), 0)
	}

	var envelope domain.BackendResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errorEnvelope(queryText, fmt.Sprintf("Unexpected error: %v", err), 0)
	}
	if envelope.Query == "" {
		envelope.Query = queryText
	}
	if envelope.Results == nil {
		envelope.Results = []domain.SearchResult{}
	}
	return envelope
}

func errorEnvelope(queryText, message string, responseTime float64) domain.BackendResponse {
	return domain.BackendResponse{
		Query:        queryText,
		Results:      []domain.SearchResult{},
		Error:        message,
		ResponseTime: responseTime,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
