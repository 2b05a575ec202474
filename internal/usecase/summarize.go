package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"research-orchestrator/internal/domain"
)

const summarizeTimeout = 60 * time.Second

// SummarizedResult is the final per-URL content joined positionally to the
// result set. Done is false only when cancellation interrupted the task, in
// which case the source is dropped from the assembled output.
type SummarizedResult struct {
	Content string
	Done    bool
}

// PageSummarizer shrinks each crawled page into a structured summary. Pages
// run in parallel; a page without raw content keeps its backend snippet and
// never touches the model.
type PageSummarizer struct {
	client           domain.SummarizerClient
	maxContentLength int
	logger           *slog.Logger
}

func NewPageSummarizer(client domain.SummarizerClient, maxContentLength int, logger *slog.Logger) *PageSummarizer {
	if maxContentLength <= 0 {
		maxContentLength = 4000
	}
	return &PageSummarizer{
		client:           client,
		maxContentLength: maxContentLength,
		logger:           logger,
	}
}

// SummarizeAll produces one SummarizedResult per URL in set order.
func (s *PageSummarizer) SummarizeAll(ctx context.Context, set *domain.UniqueResultSet) []SummarizedResult {
	urls := set.URLs()
	results := make([]SummarizedResult, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		entry := set.Get(url)
		if entry == nil {
			continue
		}
		if entry.RawContent == "" {
			// Sentinel no-op keeps positional alignment.
			results[i] = SummarizedResult{Content: entry.Content, Done: true}
			continue
		}

		wg.Add(1)
		go func(i int, url string, entry *domain.UniqueResult) {
			defer wg.Done()
			results[i] = s.summarizeOne(ctx, url, entry)
		}(i, url, entry)
	}
	wg.Wait()

	return results
}

func (s *PageSummarizer) summarizeOne(ctx context.Context, url string, entry *domain.UniqueResult) SummarizedResult {
	callCtx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	date := time.Now().UTC().Format("January 2, 2006")
	content := truncate(entry.RawContent, s.maxContentLength)

	summary, err := s.client.Summarize(callCtx, content, date)
	if err != nil && domain.IsTokenLimitExceeded(err, s.client.Model()) {
		// Halve the window and retry once before giving up.
		s.logger.Warn("summarize_token_limit",
			slog.String("url", url),
			slog.String("model", s.client.Model()))
		summary, err = s.client.Summarize(callCtx, truncate(entry.RawContent, s.maxContentLength/2), date)
	}

	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("summarize_cancelled", slog.String("url", url))
			return SummarizedResult{}
		}
		s.logger.Warn("summarize_fallback_raw",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return SummarizedResult{Content: content, Done: true}
	}

	s.logger.Info("summarize_completed",
		slog.String("url", url),
		slog.Int("summary_chars", len(summary.Summary)))

	return SummarizedResult{Content: formatSummary(summary), Done: true}
}

func formatSummary(summary *domain.Summary) string {
	return fmt.Sprintf("<summary>\n%s\n</summary>\n\n<key_excerpts>\n%s\n</key_excerpts>",
		summary.Summary, summary.KeyExcerpts)
}

// truncate cuts s to at most limit bytes, backing off to the previous rune
// boundary so the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
