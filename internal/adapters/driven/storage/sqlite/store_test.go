package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "cache.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.EmbeddingCache().Put(context.Background(), "m", "h", []float32{1, 2}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	vec, ok, err := second.EmbeddingCache().Get(context.Background(), "m", "h")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2}, vec)
}

func TestEmbeddingCache_GetMiss(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()

	vec, ok, err := cache.Get(context.Background(), "nomic-embed-text", "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, vec)
}

func TestEmbeddingCache_PutGet(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	want := []float32{0.25, -1.5, 3.75}
	require.NoError(t, cache.Put(ctx, "nomic-embed-text", "abc", want))

	got, ok, err := cache.Get(ctx, "nomic-embed-text", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestEmbeddingCache_KeyedByModel(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "model-a", "h", []float32{1}))

	_, ok, err := cache.Get(ctx, "model-b", "h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmbeddingCache_Overwrite(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "m", "h", []float32{1, 2, 3}))
	require.NoError(t, cache.Put(ctx, "m", "h", []float32{4, 5}))

	got, ok, err := cache.Get(ctx, "m", "h")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{4, 5}, got)
}

func TestFloat32Conversion(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{"nil", nil},
		{"single", []float32{1.5}},
		{"mixed", []float32{-0.5, 0, 3.25, 1e-7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToFloat32Slice(float32SliceToBytes(tt.input))
			assert.Equal(t, tt.input, got)
		})
	}
}
