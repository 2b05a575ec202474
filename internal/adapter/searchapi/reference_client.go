package searchapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"research-orchestrator/internal/domain"
)

// referenceRequest mirrors the hosted reference API. The key travels in the
// payload, not a header.
type referenceRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	IncludeRawContent bool     `json:"include_raw_content"`
	Topic             string   `json:"topic"`
	SearchDepth       string   `json:"search_depth,omitempty"`
	TimeRange         string   `json:"time_range,omitempty"`
	Days              int      `json:"days,omitempty"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
	IncludeAnswer     bool     `json:"include_answer,omitempty"`
	IncludeImages     bool     `json:"include_images,omitempty"`
}

// ReferenceClient is the hosted fallback backend. It defines the response
// envelope the self-hosted backends are compatible with.
type ReferenceClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewReferenceClient(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *ReferenceClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ReferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

func (c *ReferenceClient) Name() string { return "reference" }

func (c *ReferenceClient) CrawlsContent() bool { return false }

func (c *ReferenceClient) Close() { c.client.CloseIdleConnections() }

func (c *ReferenceClient) Search(ctx context.Context, query domain.SearchQuery, opts domain.SearchOptions) domain.BackendResponse {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}
	payload := referenceRequest{
		APIKey:            apiKey,
		Query:             query.Text,
		MaxResults:        query.MaxResults,
		IncludeRawContent: query.IncludeRawContent,
		Topic:             string(query.Topic),
		SearchDepth:       opts.SearchDepth,
		TimeRange:         opts.TimeRange,
		Days:              opts.Days,
		IncludeDomains:    opts.IncludeDomains,
		ExcludeDomains:    opts.ExcludeDomains,
		IncludeAnswer:     opts.IncludeAnswer,
		IncludeImages:     opts.IncludeImages,
	}
	return postSearch(ctx, c.client, c.baseURL+"/search", payload, query.Text, 60.0, c.logger)
}
