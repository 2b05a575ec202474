package domain

import "context"

// MetricRow is one row of the metrics_data table consumed by the analysis
// workflow.
type MetricRow struct {
	MetricName        string   `json:"metric_name"`
	SegmentCombo      string   `json:"segment_combo"`
	ValueCurrent      *float64 `json:"value_current"`
	ValuePrevious     *float64 `json:"value_previous"`
	ValueDelta        *float64 `json:"value_delta"`
	ContributionValue *float64 `json:"contribution_value"`
	IsOutlier         bool     `json:"is_outlier"`
	OutlierType       string   `json:"outlier_type,omitempty"`
}

// MetricsFilter selects the metric rows for one title/season/week.
type MetricsFilter struct {
	Title  string
	Season string
	Week   int
}

// FilterValues are the distinct filter dimensions available to clients.
type FilterValues struct {
	Titles  []string `json:"titles"`
	Seasons []string `json:"seasons"`
	Weeks   []int    `json:"weeks"`
}

// MetricsRepository reads structured metrics for the analysis workflow.
type MetricsRepository interface {
	GetMetrics(ctx context.Context, filter MetricsFilter) ([]MetricRow, error)
	// QueryChartRows runs the deterministic chart select synthesized by the
	// workflow. xField and yField must come from the workflow's allow-list.
	QueryChartRows(ctx context.Context, filter MetricsFilter, xField, yField, extraFilter string, limit int) ([]map[string]any, error)
	GetFilterValues(ctx context.Context) (*FilterValues, error)
}

// ReportChunk is a fixed-size document slice retrieved by similarity search.
type ReportChunk struct {
	Source      string  `json:"source"` // "report_origin" or "report_deep_research"
	Title       string  `json:"title"`
	Season      string  `json:"season"`
	Week        int     `json:"week"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	Content     string  `json:"content"`
	Similarity  float64 `json:"similarity"`
}

// ReportChunkSearcher runs top-K vector similarity search over chunked
// reports, filtered to one title and season.
type ReportChunkSearcher interface {
	SearchChunks(ctx context.Context, embedding []float32, title, season string, topK int) ([]ReportChunk, error)
}
