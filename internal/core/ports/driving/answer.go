package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// AnswerService answers questions against a session's documents.
type AnswerService interface {
	// Ask retrieves up to k chunks and generates a cited answer with the
	// provider selected by cfg. k <= 0 uses the configured default.
	// Returns *domain.SessionNotFoundError or *domain.GenerationError on failure.
	Ask(ctx context.Context, sessionID, question string, cfg domain.ProviderConfig, k int) (*domain.Answer, error)

	// Retrieve returns the chunks Ask would use, without generating.
	Retrieve(ctx context.Context, sessionID, question string, k int) (domain.RetrievalResult, error)
}
