package searchapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"research-orchestrator/internal/domain"
)

// searchCrawlRequest is the payload of the combined search+crawl backend.
// The backend fetches pages itself, so the client-side crawl pass is skipped.
type searchCrawlRequest struct {
	Query             string `json:"query"`
	Limit             int    `json:"limit"`
	IncludeRawContent bool   `json:"include_raw_content"`
	Topic             string `json:"topic"`
	Timeout           int    `json:"timeout,omitempty"`
}

// SearchCrawlClient calls a backend that performs search and page crawling in
// one request and already returns raw_content per result.
type SearchCrawlClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewSearchCrawlClient(baseURL string, client *http.Client, logger *slog.Logger) *SearchCrawlClient {
	if client == nil {
		client = &http.Client{Timeout: 180 * time.Second}
	}
	return &SearchCrawlClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (c *SearchCrawlClient) Name() string { return "search-crawl" }

func (c *SearchCrawlClient) CrawlsContent() bool { return true }

func (c *SearchCrawlClient) Close() { c.client.CloseIdleConnections() }

func (c *SearchCrawlClient) Search(ctx context.Context, query domain.SearchQuery, opts domain.SearchOptions) domain.BackendResponse {
	payload := searchCrawlRequest{
		Query:             query.Text,
		Limit:             query.MaxResults,
		IncludeRawContent: query.IncludeRawContent,
		Topic:             string(query.Topic),
		Timeout:           opts.TimeoutSeconds,
	}
	return postSearch(ctx, c.client, c.baseURL+"/search", payload, query.Text, 180.0, c.logger)
}
