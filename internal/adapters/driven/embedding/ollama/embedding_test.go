package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dims  int
	err   error
	short bool
	calls int
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, f.dims)
	v[0] = float32(len(text))
	return v
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, f.vector(t))
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Zero(t, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestEmbeddingService_LearnsDimensions(t *testing.T) {
	svc := newWithEmbedder(&fakeEmbedder{dims: 4}, Config{Model: "m"})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, 4, svc.Dimensions())

	vec, err := svc.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbeddingService_RejectsWrongDimensions(t *testing.T) {
	svc := newWithEmbedder(&fakeEmbedder{dims: 4}, Config{Model: "m", Dimensions: 768})

	_, err := svc.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 768")
}

func TestEmbeddingService_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newWithEmbedder(&fakeEmbedder{dims: 2, err: boom}, Config{Model: "m"})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	svc := newWithEmbedder(&fakeEmbedder{dims: 2, short: true}, Config{Model: "m"})

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 texts")
}

func TestEmbeddingService_EmptyBatch(t *testing.T) {
	fake := &fakeEmbedder{dims: 2}
	svc := newWithEmbedder(fake, Config{Model: "m"})

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Zero(t, fake.calls)
}

func TestEmbeddingService_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tags", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"models":[]}`))
			}))
			defer server.Close()

			svc := newWithEmbedder(&fakeEmbedder{dims: 2}, Config{BaseURL: server.URL, Model: "m"})
			err := svc.Ping(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
