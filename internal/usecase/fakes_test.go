package usecase_test

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

// fakeBackend replays canned responses keyed by query text and records the
// calls it received.
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]domain.BackendResponse
	calls     []string
	crawls    bool
	onSearch  func(query domain.SearchQuery)
}

func newFakeBackend(crawls bool) *fakeBackend {
	return &fakeBackend{
		responses: make(map[string]domain.BackendResponse),
		crawls:    crawls,
	}
}

func (b *fakeBackend) Search(ctx context.Context, query domain.SearchQuery, opts domain.SearchOptions) domain.BackendResponse {
	b.mu.Lock()
	b.calls = append(b.calls, query.Text)
	b.mu.Unlock()
	if b.onSearch != nil {
		b.onSearch(query)
	}
	if resp, ok := b.responses[query.Text]; ok {
		return resp
	}
	return domain.BackendResponse{Query: query.Text, Results: []domain.SearchResult{}}
}

func (b *fakeBackend) CrawlsContent() bool { return b.crawls }
func (b *fakeBackend) Name() string        { return "fake" }
func (b *fakeBackend) Close()              {}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// fakeFetcher serves markdown per URL; a URL in block waits for ctx
// cancellation, and a URL in fail returns its error.
type fakeFetcher struct {
	pages map[string]string
	fail  map[string]error
	block map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.block[url] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err, ok := f.fail[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func (f *fakeFetcher) Close() error { return nil }

// fakeSummarizerClient returns a fixed summary, or an error sequence when
// errs is non-empty. Calls are recorded with their content for assertions.
type fakeSummarizerClient struct {
	mu       sync.Mutex
	summary  *domain.Summary
	errs     []error
	contents []string
	model    string
}

func (c *fakeSummarizerClient) Summarize(ctx context.Context, pageContent string, date string) (*domain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.contents = append(c.contents, pageContent)
	var err error
	if len(c.errs) > 0 {
		err = c.errs[0]
		c.errs = c.errs[1:]
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if c.summary != nil {
		return c.summary, nil
	}
	return &domain.Summary{Summary: "summary of " + pageContent[:min(20, len(pageContent))], KeyExcerpts: "excerpt"}, nil
}

func (c *fakeSummarizerClient) Model() string {
	if c.model == "" {
		return "ollama:qwen3"
	}
	return c.model
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
