package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/infra/logger"
)

// ResearchInput is the pipeline request passed by the workflow coordinator.
type ResearchInput struct {
	Queries           []string `json:"queries"`
	MaxResults        int      `json:"max_results"`
	Topic             string   `json:"topic"`
	IncludeRawContent bool     `json:"include_raw_content"`
}

// ResearchUsecase runs the full deep-research pipeline: dispatch, normalize,
// crawl enrichment, summarization, assembly.
type ResearchUsecase interface {
	Execute(ctx context.Context, input ResearchInput) (string, error)
}

type researchUsecase struct {
	backend    domain.SearchBackend
	dispatcher *SearchDispatcher
	normalizer *ResultNormalizer
	enricher   *CrawlEnricher
	summarizer *PageSummarizer
	assembler  *Assembler
	options    domain.SearchOptions
	logger     *slog.Logger
}

func NewResearchUsecase(
	backend domain.SearchBackend,
	dispatcher *SearchDispatcher,
	normalizer *ResultNormalizer,
	enricher *CrawlEnricher,
	summarizer *PageSummarizer,
	assembler *Assembler,
	options domain.SearchOptions,
	log *slog.Logger,
) ResearchUsecase {
	return &researchUsecase{
		backend:    backend,
		dispatcher: dispatcher,
		normalizer: normalizer,
		enricher:   enricher,
		summarizer: summarizer,
		assembler:  assembler,
		options:    options,
		logger:     log,
	}
}

// Execute runs the stages in order. Cancellation at any stage short-circuits
// to assembly with whatever completed, so callers always receive a payload.
func (u *researchUsecase) Execute(ctx context.Context, input ResearchInput) (string, error) {
	if len(input.Queries) == 0 {
		return "", fmt.Errorf("queries must not be empty")
	}
	if input.MaxResults <= 0 {
		input.MaxResults = 5
	}
	topic, err := parseTopic(input.Topic)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := u.logger.With(slog.String("run_id", runID))

	started := time.Now()
	log.Info("research_run_started",
		slog.Int("query_count", len(input.Queries)),
		slog.String("topic", string(topic)),
		slog.String("backend", u.backend.Name()))

	queries := make([]domain.SearchQuery, len(input.Queries))
	for i, text := range input.Queries {
		queries[i] = domain.SearchQuery{
			Text:              text,
			Topic:             topic,
			MaxResults:        input.MaxResults,
			IncludeRawContent: input.IncludeRawContent,
		}
	}

	dispatchCtx := logger.WithPipelineStage(ctx, "dispatch")
	responses := u.dispatcher.Dispatch(dispatchCtx, queries, u.options)

	normalized := u.normalizer.Normalize(responses)
	images := normalized.Images

	if !u.backend.CrawlsContent() && normalized.Set.Len() > 0 && ctx.Err() == nil {
		crawlCtx := logger.WithPipelineStage(ctx, "crawl")
		stats := u.enricher.Enrich(crawlCtx, normalized.Set)
		images = append(images, stats.Images...)
	}

	summarizeCtx := logger.WithPipelineStage(ctx, "summarize")
	summaries := u.summarizer.SummarizeAll(summarizeCtx, normalized.Set)

	searchLog := &domain.SearchLog{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Queries:   input.Queries,
		Parameters: domain.SearchLogParameters{
			MaxResults:        input.MaxResults,
			Topic:             topic,
			IncludeRawContent: input.IncludeRawContent,
			Backend:           u.backend.Name(),
		},
		RawResults: responses,
	}

	output := u.assembler.Assemble(normalized.Set, summaries, images, searchLog)

	log.Info("research_run_completed",
		slog.Int("unique_sources", normalized.Set.Len()),
		slog.Int("emitted_sources", searchLog.ProcessedCount),
		slog.Bool("cancelled", ctx.Err() != nil),
		slog.Duration("elapsed", time.Since(started)))

	return output, nil
}

func parseTopic(raw string) (domain.Topic, error) {
	switch raw {
	case "", string(domain.TopicGeneral):
		return domain.TopicGeneral, nil
	case string(domain.TopicNews):
		return domain.TopicNews, nil
	case string(domain.TopicFinance):
		return domain.TopicFinance, nil
	default:
		return "", fmt.Errorf("unknown topic: %s", raw)
	}
}
