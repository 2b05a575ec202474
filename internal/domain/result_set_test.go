package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"research-orchestrator/internal/domain"
)

func TestUniqueResultSet_FirstOccurrenceWins(t *testing.T) {
	set := domain.NewUniqueResultSet()

	added := set.Add(domain.SearchResult{URL: "https://a.example", Title: "first"}, "query one")
	assert.True(t, added)

	added = set.Add(domain.SearchResult{URL: "https://a.example", Title: "second"}, "query two")
	assert.False(t, added)

	entry := set.Get("https://a.example")
	assert.Equal(t, "first", entry.Title)
	assert.Equal(t, "query one", entry.OriginQuery)
	assert.Equal(t, 1, set.Len())
}

func TestUniqueResultSet_PreservesInsertionOrder(t *testing.T) {
	set := domain.NewUniqueResultSet()
	set.Add(domain.SearchResult{URL: "https://c.example"}, "q")
	set.Add(domain.SearchResult{URL: "https://a.example"}, "q")
	set.Add(domain.SearchResult{URL: "https://b.example"}, "q")
	set.Add(domain.SearchResult{URL: "https://a.example"}, "q")

	assert.Equal(t, []string{"https://c.example", "https://a.example", "https://b.example"}, set.URLs())
}

func TestUniqueResultSet_EmptyURLRejected(t *testing.T) {
	set := domain.NewUniqueResultSet()
	assert.False(t, set.Add(domain.SearchResult{Title: "no url"}, "q"))
	assert.Equal(t, 0, set.Len())
}

func TestUniqueResultSet_GetReturnsLivePointer(t *testing.T) {
	set := domain.NewUniqueResultSet()
	set.Add(domain.SearchResult{URL: "https://a.example"}, "q")

	set.Get("https://a.example").RawContent = "crawled markdown"

	assert.Equal(t, "crawled markdown", set.Get("https://a.example").RawContent)
}
