package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// VectorIndex stores the chunks of exactly one session and answers
// top-k cosine similarity queries over them.
//
// The first successful Insert fixes the dimensionality. Vectors of any
// other length are rejected with a domain.DimensionMismatchError and leave
// the index unchanged. Search observes a snapshot taken when it starts and
// may run concurrently with Insert.
type VectorIndex interface {
	// Insert appends chunks with their vectors, all or nothing.
	// len(chunks) must equal len(vectors).
	Insert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search returns up to k records ordered by descending cosine similarity.
	// Ties go to the record inserted first. k larger than Len returns all records.
	Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error)

	// Len returns the number of records.
	Len() int

	// Dimensions returns the fixed dimensionality, or 0 before the first insert.
	Dimensions() int

	// Delete releases all storage. Subsequent calls return domain.ErrIndexClosed.
	Delete(ctx context.Context) error
}

// VectorIndexFactory builds an empty index for a new session.
type VectorIndexFactory func(sessionID string) (VectorIndex, error)
