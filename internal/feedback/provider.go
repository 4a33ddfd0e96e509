package feedback

import (
	"context"
	"fmt"
	"strings"
)

// ProviderOptions selects and configures an LLM backend.
type ProviderOptions struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewCompleter builds the Completer for opts.Provider (anthropic by default).
func NewCompleter(ctx context.Context, opts ProviderOptions) (Completer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "anthropic", "claude":
		return NewAnthropicCompleter(opts.APIKey, opts.Model, opts.BaseURL), nil
	case "gemini", "google":
		return NewGeminiCompleter(ctx, opts.APIKey, opts.Model, opts.BaseURL)
	case "openai":
		return NewOpenAICompleter(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", opts.Provider)
	}
}
