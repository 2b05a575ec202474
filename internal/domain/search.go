package domain

import "context"

// Topic is the coarse category tag attached to a search query. It shapes the
// default time range and result categories sent to the backend.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
	TopicFinance Topic = "finance"
)

// SearchQuery is one immutable search request. One query yields exactly one
// BackendResponse.
type SearchQuery struct {
	Text              string
	Topic             Topic
	MaxResults        int
	IncludeRawContent bool
}

// SearchOptions carries the advanced parameter surface shared by all queries
// of a run. Zero values mean "not set" and are omitted from request payloads.
type SearchOptions struct {
	// Time range control
	TimeRange string // "day", "week", "month", "year"
	DateFrom  string // YYYY-MM-DD
	DateTo    string // YYYY-MM-DD
	Days      int    // last N days

	// Domain filtering
	IncludeDomains []string
	ExcludeDomains []string

	// Search control
	Language   string
	Engines    []string
	Safesearch string // "0", "1", "2"
	SearchDepth string // "basic" or "advanced"
	Categories []string // explicit override of the topic mapping

	// Content control
	IncludeAnswer bool
	IncludeImages bool

	// LLM controls for backend answer generation (only sent with IncludeAnswer)
	LLMProvider       string
	LLMModel          string
	AnswerMaxTokens   int
	AnswerTemperature *float64
	AnswerContextSize int

	// Performance control
	TimeoutSeconds int
	APIKey         string
}

// SearchResult is a single hit inside a BackendResponse. URL is the identity
// used for deduplication.
type SearchResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content,omitempty"`
	Score         float64 `json:"score,omitempty"`
	ImgSrc        string  `json:"img_src,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// BackendResponse is the Tavily-compatible response envelope shared by every
// backend adapter. Response-level failures are carried in Error with an empty
// Results list; adapters never surface transport errors as Go errors.
type BackendResponse struct {
	Query             string         `json:"query"`
	Results           []SearchResult `json:"results"`
	Answer            string         `json:"answer,omitempty"`
	Images            []string       `json:"images,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
	Error             string         `json:"error,omitempty"`
	ResponseTime      float64        `json:"response_time,omitempty"`
}

// SearchBackend is the pluggable search capability. Implementations own their
// HTTP client and release it in Close.
type SearchBackend interface {
	// Search executes one query. Network failures, HTTP errors and timeouts
	// are mapped into the returned envelope's Error field.
	Search(ctx context.Context, query SearchQuery, opts SearchOptions) BackendResponse
	// CrawlsContent reports whether results already carry full page content,
	// in which case the crawl enrichment pass must be skipped.
	CrawlsContent() bool
	Name() string
	Close()
}
