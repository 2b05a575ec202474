package usecase_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/usecase"
)

func extractSearchLog(t *testing.T, output string) *domain.SearchLog {
	t.Helper()
	start := strings.Index(output, "<!-- SEARCH_LOG_JSON\n")
	require.NotEqual(t, -1, start, "search log comment missing")
	end := strings.Index(output[start:], "\n-->")
	require.NotEqual(t, -1, end)
	payload := output[start+len("<!-- SEARCH_LOG_JSON\n") : start+end]

	var log domain.SearchLog
	require.NoError(t, json.Unmarshal([]byte(payload), &log))
	return &log
}

func TestAssembler_RendersSourceBlocksInOrder(t *testing.T) {
	set := buildSet(
		domain.SearchResult{URL: "https://a.example", Title: "Alpha"},
		domain.SearchResult{URL: "https://b.example", Title: "Beta"},
	)
	summaries := []usecase.SummarizedResult{
		{Content: "summary alpha", Done: true},
		{Content: "summary beta", Done: true},
	}

	output := usecase.NewAssembler().Assemble(set, summaries, nil, nil)

	assert.True(t, strings.HasPrefix(output, "Search results: \n\n"))
	assert.Contains(t, output, "--- SOURCE 1: Alpha ---\nURL: https://a.example\n\nSUMMARY:\nsummary alpha")
	assert.Contains(t, output, "--- SOURCE 2: Beta ---\nURL: https://b.example")
	assert.Contains(t, output, strings.Repeat("-", 80))
	assert.Less(t, strings.Index(output, "SOURCE 1"), strings.Index(output, "SOURCE 2"))
}

func TestAssembler_DropsInterruptedSourcesAndRenumbers(t *testing.T) {
	set := buildSet(
		domain.SearchResult{URL: "https://a.example", Title: "Alpha"},
		domain.SearchResult{URL: "https://b.example", Title: "Beta"},
		domain.SearchResult{URL: "https://c.example", Title: "Gamma"},
	)
	summaries := []usecase.SummarizedResult{
		{Content: "summary alpha", Done: true},
		{Done: false},
		{Content: "summary gamma", Done: true},
	}
	log := &domain.SearchLog{Queries: []string{"q"}}

	output := usecase.NewAssembler().Assemble(set, summaries, nil, log)

	assert.Contains(t, output, "--- SOURCE 1: Alpha ---")
	assert.NotContains(t, output, "Beta")
	assert.Contains(t, output, "--- SOURCE 2: Gamma ---")
	assert.Equal(t, 2, log.ProcessedCount)
}

func TestAssembler_EmptyResultsMessage(t *testing.T) {
	set := domain.NewUniqueResultSet()
	log := &domain.SearchLog{
		Queries: []string{"q1"},
		RawResults: []domain.BackendResponse{
			{Query: "q1", Error: "HTTP error 500: boom"},
		},
	}

	output := usecase.NewAssembler().Assemble(set, nil, nil, log)

	assert.True(t, strings.HasPrefix(output, "No valid search results found. Please try different search queries or use a different search API."))
	parsed := extractSearchLog(t, output)
	assert.Equal(t, 0, parsed.ProcessedCount)
	assert.Equal(t, []string{"q1"}, parsed.Queries)
	require.Len(t, parsed.RawResults, 1)
	assert.Equal(t, "HTTP error 500: boom", parsed.RawResults[0].Error)
}

func TestAssembler_EmptyResultsWithoutLogIsBareMessage(t *testing.T) {
	set := domain.NewUniqueResultSet()
	output := usecase.NewAssembler().Assemble(set, nil, nil, nil)
	assert.Equal(t, "No valid search results found. Please try different search queries or use a different search API.", output)
}

func TestAssembler_ImageInventoryCappedAtTwenty(t *testing.T) {
	set := buildSet(domain.SearchResult{URL: "https://a.example", Title: "Alpha"})
	summaries := []usecase.SummarizedResult{{Content: "s", Done: true}}

	var images []domain.ImageRef
	for i := 0; i < 25; i++ {
		images = append(images, domain.ImageRef{
			URL:         fmt.Sprintf("https://img.example/%d.png", i),
			SourceURL:   "https://a.example",
			SourceTitle: "Alpha",
		})
	}

	output := usecase.NewAssembler().Assemble(set, summaries, images, nil)

	assert.Contains(t, output, "=== AVAILABLE IMAGES FROM SEARCH RESULTS ===")
	assert.Contains(t, output, "[Image 20] https://img.example/19.png")
	assert.NotContains(t, output, "[Image 21]")
	assert.NotContains(t, output, "https://img.example/20.png")
	assert.Contains(t, output, "From: Alpha (https://a.example)")
	assert.Contains(t, output, "=== END OF IMAGES ===")
}

func TestAssembler_SearchLogRoundTrip(t *testing.T) {
	set := buildSet(domain.SearchResult{URL: "https://a.example", Title: "Alpha"})
	summaries := []usecase.SummarizedResult{{Content: "s", Done: true}}
	log := &domain.SearchLog{
		Timestamp: "2026-08-24T00:00:00Z",
		Queries:   []string{"q1", "q2"},
		Parameters: domain.SearchLogParameters{
			MaxResults: 5,
			Topic:      domain.TopicNews,
			Backend:    "search-only",
		},
		RawResults: []domain.BackendResponse{
			{Query: "q1", Results: []domain.SearchResult{{URL: "https://a.example"}}},
			{Query: "q2", Results: []domain.SearchResult{}, Error: "HTTP error 500: boom"},
		},
	}

	output := usecase.NewAssembler().Assemble(set, summaries, nil, log)
	parsed := extractSearchLog(t, output)

	assert.Equal(t, []string{"q1", "q2"}, parsed.Queries)
	assert.Equal(t, 1, parsed.ProcessedCount)
	assert.Equal(t, domain.TopicNews, parsed.Parameters.Topic)
	assert.Equal(t, "search-only", parsed.Parameters.Backend)
	require.Len(t, parsed.RawResults, 2)
	assert.Equal(t, "HTTP error 500: boom", parsed.RawResults[1].Error)
	assert.True(t, strings.HasSuffix(output, "\n-->\n"))
}
