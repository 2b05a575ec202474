package ragflow

// Reference is one unique document that contributed chunks to the retrieval
// context, with the count of chunks it supplied.
type Reference struct {
	Source     string  `json:"source"`
	Title      string  `json:"title"`
	Season     string  `json:"season"`
	Week       int     `json:"week"`
	Similarity float64 `json:"similarity"`
	ChunksUsed int     `json:"chunks_used"`
}

// State is the single mutable record flowing through the four-node analysis
// workflow. Each node reads earlier fields and writes its own section.
type State struct {
	// Input
	Question  string `json:"question"`
	Title     string `json:"title"`
	Season    string `json:"season"`
	Week      int    `json:"week"`
	EnableRAG bool   `json:"enable_rag"`

	// Node 1: retrieval and analysis
	Analysis    string      `json:"analysis"`
	KeyMetrics  []string    `json:"key_metrics"`
	KeySegments []string    `json:"key_segments"`
	References  []Reference `json:"rag_references"`
	RAGContext  string      `json:"-"`

	// Node 2: chart decision
	ChartType   string `json:"chart_type"`
	ChartTitle  string `json:"chart_title"`
	XAxis       string `json:"x_axis"`
	YAxis       string `json:"y_axis"`
	ChartFilter string `json:"chart_filter,omitempty"`

	// Node 3: query and visualization
	SQLQuery    string           `json:"sql_query"`
	ChartRows   []map[string]any `json:"sql_result"`
	ChartOption map[string]any   `json:"chart_option"`
	PythonCode  string           `json:"python_code"`

	// Node 4: explanation
	FinalExplanation string   `json:"final_explanation"`
	ReferenceList    []string `json:"references"`
}
