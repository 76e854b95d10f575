// Package ai provides factory functions for the embedding, caching, indexing
// and LLM adapters selected by settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Components holds the adapters assembled from settings.
type Components struct {
	Embedder     driven.EmbeddingService
	IndexFactory driven.VectorIndexFactory
	Providers    *Registry
}

// Close releases all resources held by the components.
func (c *Components) Close() error {
	if c.Embedder == nil {
		return nil
	}
	return c.Embedder.Close()
}

// Build assembles every adapter from settings. dataDir holds the sqlite
// embedding cache when one is configured.
func Build(settings domain.AppSettings, dataDir string) (*Components, error) {
	cache, err := CreateEmbeddingCache(settings.Embedding, dataDir)
	if err != nil {
		return nil, err
	}

	embedder, err := CreateEmbeddingService(settings.Embedding, cache)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, err
	}

	factory, err := CreateVectorIndexFactory(settings.Index)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	return &Components{
		Embedder:     embedder,
		IndexFactory: factory,
		Providers:    NewRegistry(settings.LLM),
	}, nil
}

// CreateEmbeddingCache opens the configured cache. Returns nil for "none".
func CreateEmbeddingCache(settings domain.EmbeddingSettings, dataDir string) (driven.EmbeddingCache, error) {
	switch settings.Cache {
	case "", domain.EmbeddingCacheNone:
		return nil, nil

	case domain.EmbeddingCacheMemory:
		size := settings.CacheSize
		if size <= 0 {
			size = domain.DefaultEmbeddingCache
		}
		return memory.NewEmbeddingCache(size)

	case domain.EmbeddingCacheSQLite:
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
		return store.EmbeddingCache(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding cache: %s", domain.ErrInvalidInput, settings.Cache)
	}
}

// CreateEmbeddingService creates the embedding service selected by settings,
// decorated with cache when it is non-nil.
func CreateEmbeddingService(settings domain.EmbeddingSettings, cache driven.EmbeddingCache) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %q with model %q",
			domain.ErrInvalidInput, settings.Provider, settings.Model)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		svc, err = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			BatchSize:  settings.BatchSize,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.EmbeddingProviderOpenAI:
		svc = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			BatchSize:  settings.BatchSize,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.EmbeddingProviderHash:
		svc = hash.NewEmbeddingService(hashDimensions(settings.Model))

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cache != nil {
		return cached.New(svc, cache), nil
	}
	return svc, nil
}

// hashDimensions reads the bucket count from a "hash-<n>" model name.
func hashDimensions(model string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(model, "hash-"))
	if err != nil || n <= 0 {
		return hash.DefaultDimensions
	}
	return n
}

// ValidateEmbeddingService pings svc within pingTimeout.
func ValidateEmbeddingService(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		return errors.New("no embedding service configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbedding, svc.ModelName(), err)
	}
	return nil
}

// CreateVectorIndexFactory returns the index factory for the configured backend.
func CreateVectorIndexFactory(settings domain.IndexSettings) (driven.VectorIndexFactory, error) {
	switch settings.Backend {
	case "", domain.IndexBackendMemory:
		return memory.NewVectorIndexFactory(), nil
	case domain.IndexBackendChromem:
		return chromem.NewIndexFactory(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported index backend: %s", domain.ErrInvalidInput, settings.Backend)
	}
}
