package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"research-orchestrator/internal/adapter/augur"
	"research-orchestrator/internal/adapter/browser"
	"research-orchestrator/internal/adapter/repository"
	"research-orchestrator/internal/adapter/searchapi"
	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/infra/config"
	"research-orchestrator/internal/infra/httpclient"
	"research-orchestrator/internal/usecase"
	"research-orchestrator/internal/usecase/ragflow"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Backend domain.SearchBackend
	Fetcher domain.PageFetcher

	Research   usecase.ResearchUsecase
	Reflection *usecase.ReflectionUsecase
	Workflow   *ragflow.Workflow

	MetricsRepo domain.MetricsRepository
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	backend := selectBackend(cfg, log)

	fetcher := browser.NewRodFetcher(cfg.Crawl.ContentThreshold, log)

	summarizerHTTP := httpclient.NewPooledClient(90 * time.Second)
	summarizerClient := augur.NewSummarizer(
		cfg.Augur.URL, cfg.Summarizer.Model,
		cfg.Summarizer.MaxTokens, cfg.Summarizer.MaxRetries,
		summarizerHTTP, log,
	)

	dispatcher := usecase.NewSearchDispatcher(backend, cfg.Search.RequestDelaySeconds, log)
	normalizer := usecase.NewResultNormalizer(log)
	enricher := usecase.NewCrawlEnricher(fetcher, cfg.Crawl.TimeoutSeconds, log)
	pageSummarizer := usecase.NewPageSummarizer(summarizerClient, cfg.Summarizer.MaxContentLength, log)
	assembler := usecase.NewAssembler()

	research := usecase.NewResearchUsecase(
		backend, dispatcher, normalizer, enricher, pageSummarizer, assembler,
		searchOptions(cfg), log,
	)

	// Analysis workflow
	metricsRepo := repository.NewMetricsRepository(pool)
	chunkSearcher := repository.NewReportChunkRepository(pool)

	augurHTTP := httpclient.NewPooledClient(time.Duration(cfg.Augur.TimeoutSeconds) * time.Second)
	generator := augur.NewGenerator(cfg.Augur.URL, cfg.Augur.Model, augurHTTP)
	embedder := augur.NewEmbedder(cfg.Augur.URL, cfg.Augur.EmbeddingModel, cfg.Augur.TimeoutSeconds)

	workflow := ragflow.NewWorkflow(
		ragflow.NewAnalyzeNode(metricsRepo, embedder, chunkSearcher, generator, cfg.RAG.TopK, log),
		ragflow.NewChartDecisionNode(generator, log),
		ragflow.NewChartNode(metricsRepo, log),
		ragflow.NewExplainNode(generator, log),
		log,
	)

	return &ApplicationComponents{
		Backend:     backend,
		Fetcher:     fetcher,
		Research:    research,
		Reflection:  usecase.NewReflectionUsecase(),
		Workflow:    workflow,
		MetricsRepo: metricsRepo,
	}
}

// Close releases the long-lived resources: the backend's connection pool and
// the shared browser.
func (c *ApplicationComponents) Close() {
	if c.Backend != nil {
		c.Backend.Close()
	}
	if c.Fetcher != nil {
		_ = c.Fetcher.Close()
	}
}

// selectBackend resolves the backend precedence: search+crawl wins over
// search-only, and the hosted reference API is the fallback.
func selectBackend(cfg *config.Config, log *slog.Logger) domain.SearchBackend {
	switch {
	case cfg.Search.UseSearchCrawl:
		log.Info("search_backend_selected", slog.String("backend", "search-crawl"))
		return searchapi.NewSearchCrawlClient(
			cfg.Search.SearchCrawlURL,
			httpclient.NewPooledClient(180*time.Second),
			log,
		)
	case cfg.Search.UseSearchOnly:
		log.Info("search_backend_selected", slog.String("backend", "search-only"))
		return searchapi.NewSearchOnlyClient(
			cfg.Search.SearchOnlyURL, "",
			httpclient.NewPooledClient(time.Duration(cfg.Search.TimeoutSeconds)*time.Second),
			log,
		)
	default:
		log.Info("search_backend_selected", slog.String("backend", "reference"))
		return searchapi.NewReferenceClient(
			cfg.Search.ReferenceURL, cfg.Search.ReferenceKey,
			httpclient.NewPooledClient(60*time.Second),
			log,
		)
	}
}

func searchOptions(cfg *config.Config) domain.SearchOptions {
	return domain.SearchOptions{
		TimeRange:      cfg.Search.TimeRange,
		Days:           cfg.Search.Days,
		IncludeDomains: cfg.Search.IncludeDomains,
		ExcludeDomains: cfg.Search.ExcludeDomains,
		Language:       cfg.Search.Language,
		Engines:        cfg.Search.Engines,
		Safesearch:     cfg.Search.Safesearch,
		SearchDepth:    cfg.Search.SearchDepth,
		IncludeAnswer:  cfg.Search.IncludeAnswer,
		IncludeImages:  cfg.Search.IncludeImages,
		TimeoutSeconds: cfg.Search.TimeoutSeconds,
	}
}
