package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-orchestrator/internal/infra/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "9020", cfg.Port)

	assert.False(t, cfg.Search.UseSearchCrawl)
	assert.True(t, cfg.Search.UseSearchOnly)
	assert.Equal(t, 5.0, cfg.Search.RequestDelaySeconds)
	assert.Equal(t, []string{"pinterest.com", "instagram.com"}, cfg.Search.ExcludeDomains)
	assert.Equal(t, "2", cfg.Search.Safesearch)

	assert.Equal(t, 15, cfg.Crawl.TimeoutSeconds)
	assert.Equal(t, 0.3, cfg.Crawl.ContentThreshold)

	assert.Equal(t, "ollama:qwen3", cfg.Summarizer.Model)
	assert.Equal(t, 4000, cfg.Summarizer.MaxContentLength)
	assert.Equal(t, 3, cfg.Summarizer.MaxRetries)

	assert.Equal(t, 5, cfg.RAG.TopK)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("USE_SEARCRAWL", "true")
	t.Setenv("SEARCH_REQUEST_DELAY", "0.5")
	t.Setenv("PERPLEXICA_DAYS", "7")
	t.Setenv("PERPLEXICA_ENGINES", "google, bing ,duckduckgo")
	t.Setenv("CRAWL_TIMEOUT", "30")

	cfg := config.Load()

	assert.True(t, cfg.Search.UseSearchCrawl)
	assert.Equal(t, 0.5, cfg.Search.RequestDelaySeconds)
	assert.Equal(t, 7, cfg.Search.Days)
	assert.Equal(t, []string{"google", "bing", "duckduckgo"}, cfg.Search.Engines)
	assert.Equal(t, 30, cfg.Crawl.TimeoutSeconds)
}

func TestLoad_EmptyListEnvClearsDefault(t *testing.T) {
	t.Setenv("PERPLEXICA_EXCLUDE_DOMAINS", "")
	cfg := config.Load()
	assert.Nil(t, cfg.Search.ExcludeDomains)
}

func TestLoad_MalformedNumbersKeepDefaults(t *testing.T) {
	t.Setenv("CRAWL_TIMEOUT", "not-a-number")
	t.Setenv("SEARCH_REQUEST_DELAY", "fast")

	cfg := config.Load()

	assert.Equal(t, 15, cfg.Crawl.TimeoutSeconds)
	assert.Equal(t, 5.0, cfg.Search.RequestDelaySeconds)
}

func TestValidate_SearchCrawlNeedsURL(t *testing.T) {
	cfg := config.Load()
	cfg.Search.UseSearchCrawl = true
	cfg.Search.SearchCrawlURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCRAWL_API_URL")
}

func TestValidate_ReferenceNeedsKey(t *testing.T) {
	cfg := config.Load()
	cfg.Search.UseSearchCrawl = false
	cfg.Search.UseSearchOnly = false
	cfg.Search.ReferenceKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")
}

func TestValidate_DefaultsPass(t *testing.T) {
	assert.NoError(t, config.Load().Validate())
}

func TestLoad_SecretFromFile(t *testing.T) {
	path := t.TempDir() + "/db_password"
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))
	t.Setenv("DB_PASSWORD_FILE", path)

	cfg := config.Load()
	assert.Equal(t, "s3cret", cfg.DBPassword)
}
