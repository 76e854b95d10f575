package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is a bounded LRU cache of embeddings.
type EmbeddingCache struct {
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingCache creates a cache holding at most size vectors.
func NewEmbeddingCache(size int) (*EmbeddingCache, error) {
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{cache: c}, nil
}

func cacheKey(model, textHash string) string {
	return model + "\x00" + textHash
}

// Get returns the cached vector, if any.
func (c *EmbeddingCache) Get(_ context.Context, model, textHash string) ([]float32, bool, error) {
	v, ok := c.cache.Get(cacheKey(model, textHash))
	return v, ok, nil
}

// Put stores a vector, evicting the least recently used entry when full.
func (c *EmbeddingCache) Put(_ context.Context, model, textHash string, vector []float32) error {
	c.cache.Add(cacheKey(model, textHash), vector)
	return nil
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// Close purges the cache.
func (c *EmbeddingCache) Close() error {
	c.cache.Purge()
	return nil
}
