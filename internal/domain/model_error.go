package domain

import (
	"errors"
	"strings"
)

// ModelCallError preserves the provider-visible surface of a failed model
// call. Provider, ErrClass and Code mirror what the provider SDK reported so
// that token-limit classification can keep working on strings instead of
// opaque wrappers.
type ModelCallError struct {
	Provider   string // "openai", "anthropic", "gemini", "ollama", ...
	ErrClass   string // provider error class name, e.g. "BadRequestError"
	Code       string // provider error code, e.g. "context_length_exceeded"
	StatusCode int
	Message    string
}

func (e *ModelCallError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	if e.ErrClass != "" {
		b.WriteString(e.ErrClass)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ChatMessage is one turn of a model conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Content string `json:"content"`
}

// IsTokenLimitExceeded reports whether err indicates the model's context
// window was exceeded. The provider is inferred from the model id prefix when
// available; otherwise every provider's patterns are checked.
func IsTokenLimitExceeded(err error, modelID string) bool {
	if err == nil {
		return false
	}
	var mce *ModelCallError
	if !errors.As(err, &mce) {
		// Plain errors can only be classified by message keywords.
		mce = &ModelCallError{Message: err.Error()}
	}
	lowerMsg := strings.ToLower(mce.Message)

	provider := providerFromModelID(modelID)
	if provider == "" {
		provider = strings.ToLower(mce.Provider)
	}

	switch provider {
	case "openai":
		return isOpenAITokenLimit(mce, lowerMsg)
	case "anthropic":
		return isAnthropicTokenLimit(mce, lowerMsg)
	case "gemini", "google":
		return isGeminiTokenLimit(mce, lowerMsg)
	}
	return isOpenAITokenLimit(mce, lowerMsg) ||
		isAnthropicTokenLimit(mce, lowerMsg) ||
		isGeminiTokenLimit(mce, lowerMsg)
}

func providerFromModelID(modelID string) string {
	model := strings.ToLower(modelID)
	switch {
	case strings.HasPrefix(model, "openai:"):
		return "openai"
	case strings.HasPrefix(model, "anthropic:"):
		return "anthropic"
	case strings.HasPrefix(model, "gemini:"), strings.HasPrefix(model, "google:"):
		return "gemini"
	}
	return ""
}

func isOpenAITokenLimit(e *ModelCallError, lowerMsg string) bool {
	isOpenAI := strings.Contains(strings.ToLower(e.Provider), "openai")
	isRequestError := e.ErrClass == "BadRequestError" || e.ErrClass == "InvalidRequestError"

	if isOpenAI && isRequestError {
		for _, kw := range []string{"token", "context", "length", "maximum context", "reduce"} {
			if strings.Contains(lowerMsg, kw) {
				return true
			}
		}
	}
	return e.Code == "context_length_exceeded"
}

func isAnthropicTokenLimit(e *ModelCallError, lowerMsg string) bool {
	isAnthropic := strings.Contains(strings.ToLower(e.Provider), "anthropic")
	return isAnthropic && e.ErrClass == "BadRequestError" &&
		strings.Contains(lowerMsg, "prompt is too long")
}

func isGeminiTokenLimit(e *ModelCallError, lowerMsg string) bool {
	isGoogle := strings.Contains(strings.ToLower(e.Provider), "google") ||
		strings.Contains(strings.ToLower(e.Provider), "gemini")
	if isGoogle && (e.ErrClass == "ResourceExhausted" || e.ErrClass == "GoogleGenerativeAIFetchError") {
		return true
	}
	return strings.Contains(lowerMsg, "resourceexhausted") ||
		strings.Contains(lowerMsg, "resource_exhausted")
}

// modelTokenLimits maps known model ids to context budgets for pre-flight
// trimming. Substring match so provider-qualified ids resolve too.
var modelTokenLimits = map[string]int{
	"openai:gpt-4.1-mini":         1047576,
	"openai:gpt-4.1-nano":         1047576,
	"openai:gpt-4.1":              1047576,
	"openai:gpt-4o-mini":          128000,
	"openai:gpt-4o":               128000,
	"openai:o4-mini":              200000,
	"openai:o3-mini":              200000,
	"openai:o3":                   200000,
	"openai:o1":                   200000,
	"anthropic:claude-opus-4":     200000,
	"anthropic:claude-sonnet-4":   200000,
	"anthropic:claude-3-7-sonnet": 200000,
	"anthropic:claude-3-5-sonnet": 200000,
	"anthropic:claude-3-5-haiku":  200000,
	"google:gemini-1.5-pro":       2097152,
	"google:gemini-1.5-flash":     1048576,
	"google:gemini-pro":           32768,
	"ollama:llama2:70b":           4096,
	"ollama:llama2:13b":           4096,
	"ollama:llama2":               4096,
	"ollama:mistral":              32768,
	"ollama:codellama":            16384,
}

// ModelTokenLimit returns the context budget for the model, or 0 when the
// model is unknown.
func ModelTokenLimit(modelID string) int {
	for key, limit := range modelTokenLimits {
		if strings.Contains(modelID, key) {
			return limit
		}
	}
	return 0
}

// TrimToLastAssistantTurn drops the tail of the conversation from the last
// assistant message onward. Used after a classified context overflow so the
// caller can retry with a shorter history. When no assistant message exists
// the input is returned unchanged.
func TrimToLastAssistantTurn(messages []ChatMessage) []ChatMessage {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" {
			return messages[:i]
		}
	}
	return messages
}
