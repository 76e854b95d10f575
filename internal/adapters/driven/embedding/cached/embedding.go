// Package cached provides an embedding service decorator that memoises
// vectors in a driven.EmbeddingCache.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves vectors from a cache and embeds only misses.
// Cache failures are logged and treated as misses.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache driven.EmbeddingCache
}

// New wraps inner with cache.
func New(inner driven.EmbeddingService, cache driven.EmbeddingCache) *EmbeddingService {
	return &EmbeddingService{inner: inner, cache: cache}
}

// TextHash returns the cache key for a text.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embed returns the cached vector or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds the distinct uncached texts in one inner call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := s.inner.ModelName()
	out := make([][]float32, len(texts))
	hashes := make([]string, len(texts))

	var missTexts []string
	missSlots := make(map[string][]int)

	for i, t := range texts {
		h := TextHash(t)
		hashes[i] = h
		if slots, pending := missSlots[h]; pending {
			missSlots[h] = append(slots, i)
			continue
		}

		vec, ok, err := s.cache.Get(ctx, model, h)
		if err != nil {
			logger.Warn("embedding cache read failed: %v", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missSlots[h] = []int{i}
		missTexts = append(missTexts, t)
	}

	logger.Debug("embedding cache: %d hits, %d misses", len(texts)-countSlots(missSlots), len(missTexts))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: got %d embeddings for %d texts", len(vecs), len(missTexts))
	}

	for j, t := range missTexts {
		h := TextHash(t)
		for _, i := range missSlots[h] {
			out[i] = vecs[j]
		}
		if err := s.cache.Put(ctx, model, h, vecs[j]); err != nil {
			logger.Warn("embedding cache write failed: %v", err)
		}
	}

	return out, nil
}

func countSlots(m map[string][]int) int {
	n := 0
	for _, s := range m {
		n += len(s)
	}
	return n
}

// Dimensions returns the inner service's dimensions.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service and the cache.
func (s *EmbeddingService) Close() error {
	innerErr := s.inner.Close()
	cacheErr := s.cache.Close()
	if innerErr != nil {
		return innerErr
	}
	return cacheErr
}
