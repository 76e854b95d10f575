package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// NormaliserRegistry selects the normaliser for a document's format.
type NormaliserRegistry interface {
	// Normalise resolves the document format and loads it.
	// Unknown formats return *domain.UnsupportedFormatError.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser, replacing any previous one for its format.
	Register(normaliser Normaliser)

	// SupportedFormats returns the formats that can be loaded.
	SupportedFormats() []domain.Format
}
