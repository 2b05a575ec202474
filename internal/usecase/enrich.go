package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"research-orchestrator/internal/domain"
)

// EnrichStats summarizes one crawl pass for logging and the run report.
type EnrichStats struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
	Images    []domain.ImageRef
}

// PagesPerSecond reports crawl throughput over the whole pass.
func (s EnrichStats) PagesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Attempted) / s.Elapsed.Seconds()
}

// CrawlEnricher fills in raw content for URLs the backend only described.
// All URLs are crawled in parallel inside one shared browser; every crawl
// carries its own timeout so one stuck page cannot stall the pass.
type CrawlEnricher struct {
	fetcher domain.PageFetcher
	timeout time.Duration
	logger  *slog.Logger
}

func NewCrawlEnricher(fetcher domain.PageFetcher, timeoutSeconds int, logger *slog.Logger) *CrawlEnricher {
	timeout := 15 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &CrawlEnricher{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
	}
}

// Enrich crawls every entry whose raw content is empty, mutating the set in
// place. Failures leave the backend snippet untouched. Harvested images are
// ordered by the set's URL order so output stays deterministic.
func (e *CrawlEnricher) Enrich(ctx context.Context, set *domain.UniqueResultSet) EnrichStats {
	urls := set.URLs()
	stats := EnrichStats{}
	start := time.Now()

	imagesByIndex := make([][]domain.ImageRef, len(urls))
	var mu sync.Mutex
	var g errgroup.Group

	for i, url := range urls {
		entry := set.Get(url)
		if entry == nil || entry.RawContent != "" {
			stats.Skipped++
			continue
		}
		stats.Attempted++

		i, url, entry := i, url, entry
		g.Go(func() error {
			crawlCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			e.logger.Info("crawl_started", slog.String("url", url))

			markdown, err := e.fetcher.Fetch(crawlCtx, url)
			if err != nil {
				if crawlCtx.Err() == context.DeadlineExceeded {
					e.logger.Warn("crawl_timeout",
						slog.String("url", url),
						slog.Duration("timeout", e.timeout))
				} else {
					e.logger.Warn("crawl_failed",
						slog.String("url", url),
						slog.String("error", err.Error()))
				}
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				return nil
			}
			if markdown == "" {
				e.logger.Warn("crawl_empty_content", slog.String("url", url))
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				return nil
			}

			entry.RawContent = markdown
			e.logger.Info("crawl_completed",
				slog.String("url", url),
				slog.Int("char_count", len(markdown)))

			var pageImages []domain.ImageRef
			for _, img := range domain.ExtractMarkdownImages(markdown, domain.MaxImagesPerCrawl) {
				pageImages = append(pageImages, domain.ImageRef{
					URL:         img,
					SourceURL:   url,
					SourceTitle: entry.Title,
				})
			}

			mu.Lock()
			stats.Succeeded++
			imagesByIndex[i] = pageImages
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	stats.Elapsed = time.Since(start)

	for _, pageImages := range imagesByIndex {
		stats.Images = append(stats.Images, pageImages...)
	}

	e.logger.Info("crawl_pass_completed",
		slog.Int("attempted", stats.Attempted),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("skipped", stats.Skipped),
		slog.Float64("pages_per_second", stats.PagesPerSecond()),
		slog.Duration("elapsed", stats.Elapsed))

	return stats
}
