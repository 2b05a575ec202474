package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"research-orchestrator/internal/domain"
	"research-orchestrator/internal/usecase"
)

func TestSearchDispatcher_SerialWithPacing(t *testing.T) {
	backend := newFakeBackend(false)
	delay := 0.05
	dispatcher := usecase.NewSearchDispatcher(backend, delay, testLogger())

	queries := []domain.SearchQuery{
		{Text: "q1", MaxResults: 5},
		{Text: "q2", MaxResults: 5},
		{Text: "q3", MaxResults: 5},
	}

	start := time.Now()
	responses := dispatcher.Dispatch(context.Background(), queries, domain.SearchOptions{})
	elapsed := time.Since(start)

	assert.Len(t, responses, 3)
	assert.Equal(t, []string{"q1", "q2", "q3"}, backend.calls)
	// Two inter-query gaps at minimum.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestSearchDispatcher_RetainsErrorEnvelopes(t *testing.T) {
	backend := newFakeBackend(false)
	backend.responses["bad"] = domain.BackendResponse{
		Query:   "bad",
		Results: []domain.SearchResult{},
		Error:   "HTTP error 500: boom",
	}
	backend.responses["good"] = domain.BackendResponse{
		Query:   "good",
		Results: []domain.SearchResult{{URL: "https://a.example"}},
	}

	dispatcher := usecase.NewSearchDispatcher(backend, 0.001, testLogger())
	responses := dispatcher.Dispatch(context.Background(), []domain.SearchQuery{
		{Text: "bad"}, {Text: "good"},
	}, domain.SearchOptions{})

	assert.Len(t, responses, 2)
	assert.Equal(t, "HTTP error 500: boom", responses[0].Error)
	assert.Empty(t, responses[1].Error)
}

func TestSearchDispatcher_CancellationStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := newFakeBackend(false)
	backend.onSearch = func(query domain.SearchQuery) {
		if query.Text == "q1" {
			cancel()
		}
	}

	dispatcher := usecase.NewSearchDispatcher(backend, 0.001, testLogger())
	responses := dispatcher.Dispatch(ctx, []domain.SearchQuery{
		{Text: "q1"}, {Text: "q2"}, {Text: "q3"},
	}, domain.SearchOptions{})

	assert.Len(t, responses, 1)
	assert.Equal(t, 1, backend.callCount())
}

func TestSearchDispatcher_DeduplicatesRepeatedQueriesWithinBatch(t *testing.T) {
	backend := newFakeBackend(false)
	backend.responses["q"] = domain.BackendResponse{
		Query:   "q",
		Results: []domain.SearchResult{{URL: "https://a.example"}},
	}

	dispatcher := usecase.NewSearchDispatcher(backend, 0.001, testLogger())
	query := domain.SearchQuery{Text: "q", MaxResults: 5}

	responses := dispatcher.Dispatch(context.Background(), []domain.SearchQuery{query, query}, domain.SearchOptions{})

	assert.Equal(t, 1, backend.callCount())
	assert.Len(t, responses, 2)
	assert.Equal(t, responses[0], responses[1])
}

func TestSearchDispatcher_BatchesDoNotShareCache(t *testing.T) {
	backend := newFakeBackend(false)
	backend.responses["q"] = domain.BackendResponse{
		Query:   "q",
		Results: []domain.SearchResult{{URL: "https://a.example"}},
	}

	dispatcher := usecase.NewSearchDispatcher(backend, 0.001, testLogger())
	query := domain.SearchQuery{Text: "q", MaxResults: 5}

	dispatcher.Dispatch(context.Background(), []domain.SearchQuery{query}, domain.SearchOptions{})

	// The backend may return different results for the same query later.
	backend.responses["q"] = domain.BackendResponse{
		Query:   "q",
		Results: []domain.SearchResult{{URL: "https://b.example"}},
	}
	second := dispatcher.Dispatch(context.Background(), []domain.SearchQuery{query}, domain.SearchOptions{})

	assert.Equal(t, 2, backend.callCount())
	assert.Equal(t, "https://b.example", second[0].Results[0].URL)
}

func TestSearchDispatcher_DoesNotCacheFailures(t *testing.T) {
	backend := newFakeBackend(false)
	backend.responses["q"] = domain.BackendResponse{Query: "q", Error: "Request timeout: x"}

	dispatcher := usecase.NewSearchDispatcher(backend, 0.001, testLogger())
	query := domain.SearchQuery{Text: "q"}

	dispatcher.Dispatch(context.Background(), []domain.SearchQuery{query, query}, domain.SearchOptions{})

	assert.Equal(t, 2, backend.callCount())
}
