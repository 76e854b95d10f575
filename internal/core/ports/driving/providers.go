package driving

import "github.com/custodia-labs/manualqa/internal/core/domain"

// ProviderCatalog lists the LLM providers and models a request may select.
type ProviderCatalog interface {
	// ListSupportedProviders returns the static catalogue.
	ListSupportedProviders() []domain.ProviderInfo

	// Provider returns one catalogue entry.
	Provider(name domain.ProviderName) (domain.ProviderInfo, bool)
}
