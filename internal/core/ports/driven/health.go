package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// AIHealthChecker reports on the AI adapters built from settings.
type AIHealthChecker interface {
	// CheckEmbedding pings the embedding service. Returns nil if reachable.
	CheckEmbedding(ctx context.Context) error

	// EmbeddingModel returns the embedding model name.
	EmbeddingModel() string

	// RegisteredProviders returns the LLM providers that can be built, sorted.
	RegisteredProviders() []domain.ProviderName
}
