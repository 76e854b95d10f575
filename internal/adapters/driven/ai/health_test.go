package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestHealthChecker_BuiltComponents(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.EmbeddingProviderHash
	settings.Embedding.Model = "hash-64"

	c, err := Build(settings, t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	h := NewHealthChecker(c)
	assert.NoError(t, h.CheckEmbedding(context.Background()))
	assert.Equal(t, "hash-64", h.EmbeddingModel())
	assert.Equal(t,
		[]domain.ProviderName{domain.ProviderGemini, domain.ProviderGroq, domain.ProviderOllama},
		h.RegisteredProviders())
}

func TestHealthChecker_UnreachableEmbedder(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	svc, err := ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: url, Model: "nomic-embed-text"})
	require.NoError(t, err)

	h := NewHealthChecker(&Components{Embedder: svc})
	err = h.CheckEmbedding(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "nomic-embed-text")
	assert.Nil(t, h.RegisteredProviders())
}

func TestHealthChecker_Empty(t *testing.T) {
	h := NewHealthChecker(&Components{Providers: NewRegistry(domain.LLMSettings{})})
	assert.Error(t, h.CheckEmbedding(context.Background()))
	assert.Empty(t, h.EmbeddingModel())
	assert.Len(t, h.RegisteredProviders(), 3)
}
