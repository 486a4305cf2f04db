// Package llm requests prose analysis of extracted traffic summaries
// from a language model endpoint, either the Anthropic cloud API or a
// local Ollama instance. The response is unstructured text consumed
// as-is; parsing stops at splitting it into labeled sections for layout.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/pcaplens/internal/model"
)

// Model request errors.
var (
	// ErrModelRequest is returned when the analysis request fails for
	// any reason (network, auth, timeout, service down). There is no
	// partial-result recovery: the pipeline halts on this error.
	ErrModelRequest = errors.New("model analysis request failed")

	// ErrAPIKeyRequired is returned when the Anthropic provider is
	// selected without an API key.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrUnknownProvider is returned for provider names outside the
	// supported set.
	ErrUnknownProvider = errors.New("unknown model provider")
)

// Provider names accepted by NewClient.
const (
	// ProviderAnthropic reaches the Anthropic cloud API.
	ProviderAnthropic = "anthropic"

	// ProviderOllama reaches a local Ollama endpoint.
	ProviderOllama = "ollama"
)

// Request carries the material an analysis is requested for.
type Request struct {
	// Summary is the bounded textual summary from extraction.
	Summary string

	// Indicators is the enriched, deduplicated indicator list.
	Indicators []model.Indicator
}

// Client requests a prose analysis from a model endpoint.
//
// Design decision: Implementations return the raw response text rather
// than a parsed structure because the model output has no contract
// beyond being prose. Section splitting for layout lives in
// ParseSections where it can be tested without any endpoint.
type Client interface {
	// Analyze sends the prompt built from req and returns the
	// response text. Failures wrap ErrModelRequest.
	Analyze(ctx context.Context, req Request) (string, error)

	// Name returns the provider name for report metadata.
	Name() string

	// Model returns the model identifier for report metadata.
	Model() string
}

// NewClient creates a Client for the given provider. The model falls
// back to the provider default when empty; apiKey is only consulted for
// the Anthropic provider.
func NewClient(provider, modelName, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(modelName, apiKey)
	case ProviderOllama:
		return NewOllamaClient(modelName)
	default:
		return nil, fmt.Errorf("%w: %q (expected %q or %q)",
			ErrUnknownProvider, provider, ProviderAnthropic, ProviderOllama)
	}
}
