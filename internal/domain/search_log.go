package domain

// SearchLogParameters records the shared request parameters of a run.
type SearchLogParameters struct {
	MaxResults        int    `json:"max_results"`
	Topic             Topic  `json:"topic"`
	IncludeRawContent bool   `json:"include_raw_content"`
	Backend           string `json:"backend,omitempty"`
}

// SearchLog is the machine-readable trailer embedded at the tail of the
// assembled output (JSON inside an HTML comment). Downstream log extractors
// parse it back out, so its shape is a public contract.
type SearchLog struct {
	Timestamp      string              `json:"timestamp"`
	Queries        []string            `json:"queries"`
	Parameters     SearchLogParameters `json:"parameters"`
	RawResults     []BackendResponse   `json:"raw_results"`
	ProcessedCount int                 `json:"processed_count"`
}
