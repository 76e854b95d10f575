package chromem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

var errNoEmbeddingFunc = errors.New("chromem index expects precomputed embeddings")

// noEmbedding guards against chromem falling back to its default remote embedder.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

type entry struct {
	chunk  domain.Chunk
	vector []float32
	seq    int
}

// Index stores one session's chunks in a chromem collection.
// Insert and Search are serialised against each other so a query never
// observes part of a batch.
type Index struct {
	mu      sync.RWMutex
	db      *chromem.DB
	col     *chromem.Collection
	entries map[string]entry
	dims    int
	closed  bool
}

// NewIndex creates a collection for the session in db.
func NewIndex(db *chromem.DB, sessionID string) (*Index, error) {
	col, err := db.GetOrCreateCollection(collectionName(sessionID), map[string]string{"session_id": sessionID}, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &Index{
		db:      db,
		col:     col,
		entries: make(map[string]entry),
	}, nil
}

// NewIndexFactory returns a factory creating one collection per session in a shared in-memory DB.
func NewIndexFactory() driven.VectorIndexFactory {
	db := chromem.NewDB()
	return func(sessionID string) (driven.VectorIndex, error) {
		return NewIndex(db, sessionID)
	}
}

func collectionName(sessionID string) string {
	return "session_" + sessionID
}

// Insert adds chunks with their vectors, all or nothing.
func (x *Index) Insert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
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

	base := len(x.entries)
	docs := make([]chromem.Document, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		docs[i] = chromem.Document{
			ID:      c.ID,
			Content: c.Content,
			// chromem normalises in place; keep the caller's slice intact.
			Embedding: append([]float32(nil), vectors[i]...),
			Metadata: map[string]string{
				"document_id": c.DocumentID,
				"filename":    c.Filename,
				"sequence":    strconv.Itoa(c.Sequence),
				"page":        strconv.Itoa(c.Page),
				"seq":         strconv.Itoa(base + i),
			},
		}
	}

	if err := x.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		if delErr := x.col.Delete(context.WithoutCancel(ctx), nil, nil, ids...); delErr != nil {
			logger.Warn("chromem: rolling back failed batch: %v", delErr)
		}
		return fmt.Errorf("adding documents: %w", err)
	}

	for i, c := range chunks {
		vec := append([]float32(nil), vectors[i]...)
		c.Embedding = vec
		x.entries[c.ID] = entry{chunk: c, vector: vec, seq: base + i}
	}
	x.dims = dims
	return nil
}

// Search returns up to k chunks by descending cosine similarity.
func (x *Index) Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, domain.ErrIndexClosed
	}
	n := len(x.entries)
	if n == 0 || k <= 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(query) != x.dims {
		return nil, &domain.DimensionMismatchError{Expected: x.dims, Got: len(query)}
	}

	// chromem rejects nResults above the collection size. Query everything
	// so ties at the cut-off can be broken by insertion order.
	results, err := x.col.QueryEmbedding(ctx, append([]float32(nil), query...), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	type hit struct {
		entry
		score float64
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		e, ok := x.entries[r.ID]
		if !ok {
			continue
		}
		score := float64(r.Similarity)
		if math.IsNaN(score) {
			// Zero vectors normalise to NaN.
			score = 0
		}
		hits = append(hits, hit{entry: e, score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].seq < hits[j].seq
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	out := make(domain.RetrievalResult, len(hits))
	for i, h := range hits {
		out[i] = domain.ScoredChunk{Chunk: h.chunk, Score: h.score}
	}
	return out, nil
}

// Len returns the number of stored chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dimensions returns the fixed dimensionality, or 0 before the first insert.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Delete drops the session's collection.
func (x *Index) Delete(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return domain.ErrIndexClosed
	}
	x.closed = true
	x.entries = nil
	if err := x.db.DeleteCollection(x.col.Name); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}
