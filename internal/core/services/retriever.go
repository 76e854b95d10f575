package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// mmrLambda weighs relevance against diversity in MMR selection.
const mmrLambda = 0.5

// Retriever embeds queries and searches a session's index.
type Retriever struct {
	store    *SessionStore
	embedder driven.EmbeddingService
	settings domain.RetrievalSettings
}

// NewRetriever creates a retriever. It must share embedder with ingestion.
func NewRetriever(store *SessionStore, embedder driven.EmbeddingService, settings domain.RetrievalSettings) *Retriever {
	if settings.TopK <= 0 {
		settings.TopK = domain.DefaultTopK
	}
	if !settings.Strategy.IsValid() {
		settings.Strategy = domain.RetrievalSimilarity
	}
	return &Retriever{store: store, embedder: embedder, settings: settings}
}

// Retrieve returns up to k chunks relevant to query. k <= 0 uses the
// configured default.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, query string, k int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	sess, err := r.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = r.settings.TopK
	}

	if model := sess.Model(); model != "" && model != r.embedder.ModelName() {
		return nil, &domain.EmbeddingError{
			Model: r.embedder.ModelName(),
			Err:   fmt.Errorf("session %s was indexed with %q", sessionID, model),
		}
	}

	index := sess.Index()
	if index.Len() == 0 {
		logger.Debug("session %s has no chunks", sessionID)
		return domain.RetrievalResult{}, nil
	}

	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, asEmbeddingError(r.embedder.ModelName(), err)
	}

	var result domain.RetrievalResult
	switch r.settings.Strategy {
	case domain.RetrievalMMR:
		candidates, err := index.Search(ctx, q, 2*k)
		if err != nil {
			return nil, err
		}
		result = selectMMR(candidates, k, mmrLambda)
	default:
		result, err = index.Search(ctx, q, k)
		if err != nil {
			return nil, err
		}
	}

	result = applyFloor(result, r.settings.MinScore)
	logger.Debug("retrieved %d chunks (k=%d, strategy=%s)", len(result), k, r.settings.Strategy)
	return result, nil
}

// applyFloor drops results scoring below minScore. Zero disables the floor.
func applyFloor(result domain.RetrievalResult, minScore float64) domain.RetrievalResult {
	if minScore <= 0 {
		return result
	}
	kept := result[:0:0]
	for _, sc := range result {
		if sc.Score >= minScore {
			kept = append(kept, sc)
		}
	}
	return kept
}

// selectMMR picks k candidates by maximal marginal relevance. The input is
// ordered by descending score; the output keeps that order.
func selectMMR(candidates domain.RetrievalResult, k int, lambda float64) domain.RetrievalResult {
	if len(candidates) <= k {
		return candidates
	}

	chosen := make([]int, 0, k)
	used := make([]bool, len(candidates))
	for len(chosen) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for _, j := range chosen {
				redundancy = math.Max(redundancy, cosine(c.Chunk.Embedding, candidates[j].Chunk.Embedding))
			}
			score := lambda*c.Score - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		chosen = append(chosen, best)
	}

	sort.Ints(chosen)
	out := make(domain.RetrievalResult, len(chosen))
	for i, idx := range chosen {
		out[i] = candidates[idx]
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// asEmbeddingError wraps err unless it already is an EmbeddingError or a
// context error.
func asEmbeddingError(model string, err error) error {
	var embErr *domain.EmbeddingError
	if errors.As(err, &embErr) || errors.Is(err, context.Canceled) {
		return err
	}
	return &domain.EmbeddingError{Model: model, Err: err}
}
