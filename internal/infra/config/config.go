package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int
	DBMinConns int

	Search     SearchConfig
	Crawl      CrawlConfig
	Summarizer SummarizerConfig
	Augur      AugurConfig
	RAG        RAGConfig
}

// SearchConfig selects and parameterizes the search backend. When both
// selectors are enabled the search+crawl backend wins.
type SearchConfig struct {
	UseSearchCrawl bool
	UseSearchOnly  bool

	SearchCrawlURL string
	SearchOnlyURL  string
	ReferenceURL   string
	ReferenceKey   string

	RequestDelaySeconds float64
	TimeoutSeconds      int

	// Search-only extras, applied to every query of a run
	TimeRange      string
	Days           int
	IncludeDomains []string
	ExcludeDomains []string
	Language       string
	Engines        []string
	Safesearch     string
	SearchDepth    string
	IncludeAnswer  bool
	IncludeImages  bool
}

type CrawlConfig struct {
	TimeoutSeconds   int
	ContentThreshold float64
}

type SummarizerConfig struct {
	Model            string
	MaxTokens        int
	MaxRetries       int
	MaxContentLength int
}

type AugurConfig struct {
	URL            string
	Model          string
	EmbeddingModel string
	TimeoutSeconds int
}

type RAGConfig struct {
	TopK int
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "9020"),
		DBHost:     getEnv("DB_HOST", "metrics-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "research_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "research_password"),
		DBName:     getEnv("DB_NAME", "research_db"),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 8),
		DBMinConns: getEnvInt("DB_MIN_CONNS", 1),
		Search: SearchConfig{
			UseSearchCrawl:      getEnvBool("USE_SEARCRAWL", false),
			UseSearchOnly:       getEnvBool("USE_PERPLEXICA", true),
			SearchCrawlURL:      getEnv("SEARCRAWL_API_URL", "http://searcrawl-service:3000"),
			SearchOnlyURL:       getEnv("PERPLEXICA_API_URL", "http://perplexica-service/api/tavily"),
			ReferenceURL:        getEnv("TAVILY_API_URL", "https://api.tavily.com"),
			ReferenceKey:        getEnv("TAVILY_API_KEY", ""),
			RequestDelaySeconds: getEnvFloat("SEARCH_REQUEST_DELAY", 5.0),
			TimeoutSeconds:      getEnvInt("PERPLEXICA_TIMEOUT", 300),
			TimeRange:           getEnv("PERPLEXICA_TIME_RANGE", ""),
			Days:                getEnvInt("PERPLEXICA_DAYS", 0),
			IncludeDomains:      getEnvList("PERPLEXICA_INCLUDE_DOMAINS", nil),
			ExcludeDomains:      getEnvList("PERPLEXICA_EXCLUDE_DOMAINS", []string{"pinterest.com", "instagram.com"}),
			Language:            getEnv("PERPLEXICA_LANGUAGE", "en"),
			Engines:             getEnvList("PERPLEXICA_ENGINES", nil),
			Safesearch:          getEnv("PERPLEXICA_SAFESEARCH", "2"),
			SearchDepth:         getEnv("PERPLEXICA_SEARCH_DEPTH", "basic"),
			IncludeAnswer:       getEnvBool("PERPLEXICA_INCLUDE_ANSWER", false),
			IncludeImages:       getEnvBool("PERPLEXICA_INCLUDE_IMAGES", false),
		},
		Crawl: CrawlConfig{
			TimeoutSeconds:   getEnvInt("CRAWL_TIMEOUT", 15),
			ContentThreshold: getEnvFloat("CRAWL_CONTENT_THRESHOLD", 0.3),
		},
		Summarizer: SummarizerConfig{
			Model:            getEnv("SUMMARIZATION_MODEL", "ollama:qwen3"),
			MaxTokens:        getEnvInt("SUMMARIZATION_MAX_TOKENS", 1024),
			MaxRetries:       getEnvInt("MAX_STRUCTURED_OUTPUT_RETRIES", 3),
			MaxContentLength: getEnvInt("MAX_CONTENT_LENGTH", 4000),
		},
		Augur: AugurConfig{
			URL:            getEnvWithAlt("AUGUR_EXTERNAL", "AUGUR_EXTERNAL_URL", "http://augur-external:11434"),
			Model:          getEnv("AUGUR_MODEL", "qwen3"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "embeddinggemma"),
			TimeoutSeconds: getEnvInt("AUGUR_TIMEOUT", 120),
		},
		RAG: RAGConfig{
			TopK: getEnvInt("RAG_TOP_K", 5),
		},
	}
}

// Validate fails fast on configuration the pipeline cannot start without.
// Every other failure mode degrades at runtime instead.
func (c *Config) Validate() error {
	switch {
	case c.Search.UseSearchCrawl:
		if c.Search.SearchCrawlURL == "" {
			return fmt.Errorf("SEARCRAWL_API_URL is required when USE_SEARCRAWL is enabled")
		}
	case c.Search.UseSearchOnly:
		if c.Search.SearchOnlyURL == "" {
			return fmt.Errorf("PERPLEXICA_API_URL is required when USE_PERPLEXICA is enabled")
		}
	default:
		if c.Search.ReferenceKey == "" {
			return fmt.Errorf("TAVILY_API_KEY is required when no self-hosted backend is enabled")
		}
	}
	if c.Summarizer.Model == "" {
		return fmt.Errorf("SUMMARIZATION_MODEL must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return strings.EqualFold(value, "true")
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
