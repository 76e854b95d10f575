package ai

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure HealthChecker implements the interface.
var _ driven.AIHealthChecker = (*HealthChecker)(nil)

// HealthChecker checks the embedder and provider registry of a Components.
type HealthChecker struct {
	components *Components
}

// NewHealthChecker creates a checker over c.
func NewHealthChecker(c *Components) *HealthChecker {
	return &HealthChecker{components: c}
}

// CheckEmbedding pings the embedding service within pingTimeout.
func (h *HealthChecker) CheckEmbedding(ctx context.Context) error {
	return ValidateEmbeddingService(ctx, h.components.Embedder)
}

// EmbeddingModel returns the embedding model name, or "" when none is built.
func (h *HealthChecker) EmbeddingModel() string {
	if h.components.Embedder == nil {
		return ""
	}
	return h.components.Embedder.ModelName()
}

// RegisteredProviders returns the registry's provider names.
func (h *HealthChecker) RegisteredProviders() []domain.ProviderName {
	if h.components.Providers == nil {
		return nil
	}
	return h.components.Providers.Names()
}
