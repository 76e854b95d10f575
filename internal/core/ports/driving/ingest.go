package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// IngestService loads uploaded files into a session.
type IngestService interface {
	// Ingest loads, chunks, embeds and indexes the files, creating the
	// session on first use. It returns one result per file in input order.
	// Per-file failures are reported in the results; the error return is
	// reserved for an invalid session id or a cancelled context.
	Ingest(ctx context.Context, sessionID string, files []domain.RawDocument) ([]domain.IngestResult, error)
}
