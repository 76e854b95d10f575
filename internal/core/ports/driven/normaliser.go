package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Normaliser loads one document format into text.
type Normaliser interface {
	// Format returns the format this normaliser handles.
	Format() domain.Format

	// Normalise extracts text and structural metadata.
	// Failures are returned as *domain.ExtractionError.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Note: Normalisation only produces a Document with Content.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document
}
