// Package ai holds the transport to remote and local language-model runtimes
// used by the analysis advisor.
package ai

import "context"

// Runtime is implemented by AI backends such as OpenRouter and Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted in configuration.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderNone       = "none"
)

// Default models per provider.
const (
	DefaultOpenRouterModel = "google/gemini-2.0-flash-001"
	DefaultOllamaModel     = "llama3.1:8b"
)

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return DefaultOllamaModel
	case ProviderOpenRouter:
		return DefaultOpenRouterModel
	}
	return ""
}
