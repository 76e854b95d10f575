package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// HealthService checks that the configured adapters are usable.
type HealthService interface {
	// Check pings the embedding service and lists the registered LLM providers.
	Check(ctx context.Context) domain.HealthReport
}
