package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

type record struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

// VectorIndex is an exact in-memory cosine index for one session.
// Inserts replace the record slice rather than appending in place, so a
// Search holding the previous slice sees a consistent snapshot.
type VectorIndex struct {
	mu      sync.RWMutex
	records []record
	dims    int
	closed  bool
}

// NewVectorIndex creates an empty index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// NewVectorIndexFactory returns a factory producing in-memory indexes.
func NewVectorIndexFactory() driven.VectorIndexFactory {
	return func(string) (driven.VectorIndex, error) {
		return NewVectorIndex(), nil
	}
}

// Insert appends chunks with their vectors, all or nothing.
func (x *VectorIndex) Insert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return domain.ErrIndexClosed
	}

	dims := x.dims
	if dims == 0 {
		dims = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dims || dims == 0 {
			return &domain.DimensionMismatchError{Expected: dims, Got: len(v)}
		}
	}

	next := make([]record, len(x.records), len(x.records)+len(chunks))
	copy(next, x.records)
	for i, c := range chunks {
		vec := append([]float32(nil), vectors[i]...)
		c.Embedding = vec
		next = append(next, record{chunk: c, vector: vec, norm: norm(vec)})
	}

	x.records = next
	x.dims = dims
	return nil
}

// Search returns up to k records by descending cosine similarity.
func (x *VectorIndex) Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	if x.closed {
		x.mu.RUnlock()
		return nil, domain.ErrIndexClosed
	}
	records, dims := x.records, x.dims
	x.mu.RUnlock()

	if len(records) == 0 || k <= 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(query) != dims {
		return nil, &domain.DimensionMismatchError{Expected: dims, Got: len(query)}
	}

	qnorm := norm(query)
	result := make(domain.RetrievalResult, len(records))
	for i, r := range records {
		result[i] = domain.ScoredChunk{Chunk: r.chunk, Score: cosine(query, qnorm, r.vector, r.norm)}
	}

	// Stable keeps insertion order among equal scores.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	if k < len(result) {
		result = result[:k]
	}
	return result, nil
}

// Len returns the number of records.
func (x *VectorIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

// Dimensions returns the fixed dimensionality, or 0 before the first insert.
func (x *VectorIndex) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Delete drops all records.
func (x *VectorIndex) Delete(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrIndexClosed
	}
	x.records = nil
	x.closed = true
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero norm.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
