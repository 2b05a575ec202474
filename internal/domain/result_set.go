package domain

// UniqueResult is a deduplicated search result enriched with the query that
// first produced it. RawContent may be replaced later by the crawl pass.
type UniqueResult struct {
	SearchResult
	OriginQuery string
}

// UniqueResultSet maps url → enriched result while preserving first-seen
// insertion order. URL uniqueness is the core invariant of the pipeline:
// the first occurrence wins and later collisions are discarded.
type UniqueResultSet struct {
	order   []string
	entries map[string]*UniqueResult
}

func NewUniqueResultSet() *UniqueResultSet {
	return &UniqueResultSet{entries: make(map[string]*UniqueResult)}
}

// Add inserts the result under its URL and reports whether the URL was new.
func (s *UniqueResultSet) Add(result SearchResult, originQuery string) bool {
	if result.URL == "" {
		return false
	}
	if _, exists := s.entries[result.URL]; exists {
		return false
	}
	s.order = append(s.order, result.URL)
	s.entries[result.URL] = &UniqueResult{SearchResult: result, OriginQuery: originQuery}
	return true
}

// Get returns the entry for url, or nil. The returned pointer is live: the
// crawl pass mutates RawContent through it.
func (s *UniqueResultSet) Get(url string) *UniqueResult {
	return s.entries[url]
}

// URLs returns the keys in first-seen order.
func (s *UniqueResultSet) URLs() []string {
	urls := make([]string, len(s.order))
	copy(urls, s.order)
	return urls
}

func (s *UniqueResultSet) Len() int {
	return len(s.order)
}
