package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// LLMProvider produces a completion for an assembled prompt.
//
// Implementations classify failures as domain.ProviderError with Kind set
// to domain.ErrInvalidCredential, domain.ErrRateLimited or
// domain.ErrProviderUnavailable. Anything else is a plain error that the
// caller wraps as a generation failure.
//
// Implementations:
//   - Groq (OpenAI-compatible chat completions)
//   - Gemini (generativelanguage v1beta)
//   - Ollama (local models)
type LLMProvider interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Name returns the provider identity.
	Name() domain.ProviderName

	// ModelName returns the name of the LLM model being used.
	ModelName() string
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is sent as the system message. Empty sends none.
	System string

	// MaxTokens is the maximum number of tokens to generate. Zero means provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 2.0 = most random).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// LLMProviderFactory resolves a provider for a request.
// Resolution happens at call time so a session may be queried with a
// different provider on every request.
type LLMProviderFactory interface {
	// Provider builds the adapter selected by cfg. Credentials missing from
	// cfg may be resolved from the environment.
	Provider(ctx context.Context, cfg domain.ProviderConfig) (LLMProvider, error)

	// Supports reports whether a constructor is registered for name.
	Supports(name domain.ProviderName) bool
}
