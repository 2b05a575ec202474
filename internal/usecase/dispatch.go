package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/infra/logger"
)

const defaultQueryCacheSize = 128

// SearchDispatcher runs the query batch serially against the selected
// backend, pacing requests so co-located search services are not hammered.
// Failed queries keep their error envelope; the batch never aborts.
type SearchDispatcher struct {
	backend domain.SearchBackend
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewSearchDispatcher(backend domain.SearchBackend, delaySeconds float64, logger *slog.Logger) *SearchDispatcher {
	if delaySeconds <= 0 {
		delaySeconds = 5.0
	}
	return &SearchDispatcher{
		backend: backend,
		limiter: rate.NewLimiter(rate.Every(time.Duration(delaySeconds*float64(time.Second))), 1),
		logger:  logger,
	}
}

// Dispatch executes the queries in order. On cancellation it stops starting
// new queries and returns whatever completed. A batch-local cache answers
// repeated identical queries without a second backend call; it dies with the
// batch so every run observes the backend fresh.
func (d *SearchDispatcher) Dispatch(ctx context.Context, queries []domain.SearchQuery, opts domain.SearchOptions) []domain.BackendResponse {
	responses := make([]domain.BackendResponse, 0, len(queries))
	cache, _ := lru.New[string, domain.BackendResponse](defaultQueryCacheSize)

	for _, query := range queries {
		if ctx.Err() != nil {
			d.logger.Info("dispatch_cancelled",
				slog.Int("completed", len(responses)),
				slog.Int("total", len(queries)))
			break
		}

		key := d.cacheKey(query)
		if cached, ok := cache.Get(key); ok {
			d.logger.Debug("dispatch_cache_hit", slog.String("query", query.Text))
			responses = append(responses, cached)
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			break
		}

		start := time.Now()
		d.logger.Info("dispatch_query_started",
			slog.String("query", query.Text),
			slog.String("backend", d.backend.Name()))

		resp := d.backend.Search(logger.WithQuery(ctx, query.Text), query, opts)

		if resp.Error != "" {
			d.logger.Warn("dispatch_query_failed",
				slog.String("query", query.Text),
				slog.String("error", resp.Error))
		} else {
			d.logger.Info("dispatch_query_completed",
				slog.String("query", query.Text),
				slog.Int("result_count", len(resp.Results)),
				slog.Duration("elapsed", time.Since(start)))
			cache.Add(key, resp)
		}
		responses = append(responses, resp)
	}

	return responses
}

func (d *SearchDispatcher) cacheKey(query domain.SearchQuery) string {
	return fmt.Sprintf("%s|%s|%s|%d|%t",
		d.backend.Name(), query.Text, query.Topic, query.MaxResults, query.IncludeRawContent)
}
