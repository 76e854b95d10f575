package services

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure ProviderCatalog implements the interface.
var _ driving.ProviderCatalog = (*ProviderCatalog)(nil)

// ProviderCatalog lists the providers a request may select.
type ProviderCatalog struct {
	factory driven.LLMProviderFactory
}

// NewProviderCatalog creates a catalog. When factory is non-nil, only
// providers it can build are listed.
func NewProviderCatalog(factory driven.LLMProviderFactory) *ProviderCatalog {
	return &ProviderCatalog{factory: factory}
}

// ListSupportedProviders returns the static catalogue in declaration order.
func (c *ProviderCatalog) ListSupportedProviders() []domain.ProviderInfo {
	all := domain.SupportedProviders()
	if c.factory == nil {
		return all
	}
	out := make([]domain.ProviderInfo, 0, len(all))
	for _, p := range all {
		if c.factory.Supports(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// Provider returns one catalogue entry.
func (c *ProviderCatalog) Provider(name domain.ProviderName) (domain.ProviderInfo, bool) {
	for _, p := range c.ListSupportedProviders() {
		if p.Name == name {
			return p, true
		}
	}
	return domain.ProviderInfo{}, false
}
