package domain

import "context"

// LLMClient defines the capability to send prompts to an LLM and receive
// textual responses.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the LLM output and whether the generation finished.
type LLMResponse struct {
	Text string
	Done bool
}

// Summary is the structured record produced by the per-page summarization
// call.
type Summary struct {
	Summary     string `json:"summary"`
	KeyExcerpts string `json:"key_excerpts"`
}

// SummarizerClient produces a schema-coerced Summary for one page. The
// adapter owns the structured-output coercion and its bounded retry budget;
// coercion failure after retries surfaces as an error so the caller can fall
// back to the raw content.
type SummarizerClient interface {
	Summarize(ctx context.Context, pageContent string, date string) (*Summary, error)
	Model() string
}
