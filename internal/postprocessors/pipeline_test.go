package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mockProcessor returns predefined chunks, or passes input through when chunks is nil.
type mockProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func testDoc() *domain.Document {
	return &domain.Document{
		ID:        "doc-1",
		SessionID: "s1",
		Filename:  "manual.pdf",
		Content:   "Replace the hydraulic filter every 500 hours.",
	}
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_Process_ChainsProcessors(t *testing.T) {
	first := []domain.Chunk{{ID: "c1", DocumentID: "doc-1", SessionID: "s1", Content: "first"}}
	second := []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", SessionID: "s1", Content: "modified"},
		{ID: "c2", DocumentID: "doc-1", SessionID: "s1", Content: "added"},
	}

	p := NewPipeline(&mockProcessor{name: "first", chunks: first})
	p.Add(&mockProcessor{name: "second", chunks: second})
	p.Add(&mockProcessor{name: "passthrough"})
	assert.Equal(t, 3, p.Len())

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Equal(t, second, chunks)
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	cause := errors.New("processor failed")
	p := NewPipeline(&mockProcessor{name: "failing", err: cause})

	_, err := p.Process(context.Background(), testDoc())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "processor failing")
}

func TestPipeline_Process_RejectsForeignProvenance(t *testing.T) {
	tests := []struct {
		name  string
		chunk domain.Chunk
	}{
		{"other document", domain.Chunk{ID: "c", DocumentID: "doc-2", SessionID: "s1"}},
		{"other session", domain.Chunk{ID: "c", DocumentID: "doc-1", SessionID: "s2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&mockProcessor{name: "bad", chunks: []domain.Chunk{tt.chunk}})
			_, err := p.Process(context.Background(), testDoc())
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestBuildPipeline_DefaultChunker(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := BuildPipeline(r, domain.ChunkingSettings{Size: 20, Overlap: 5}.PipelineConfig())
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	doc := testDoc()
	chunks, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, doc.ID, c.DocumentID)
		assert.Equal(t, doc.SessionID, c.SessionID)
		assert.LessOrEqual(t, len([]rune(c.Content)), 20)
	}
}

func TestBuildPipeline_Errors(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := BuildPipeline(r, domain.PipelineConfig{})
	assert.Error(t, err, "empty pipeline")

	_, err = BuildPipeline(r, domain.PipelineConfig{Processors: []string{"stemmer"}})
	assert.Error(t, err, "unknown processor")

	_, err = BuildPipeline(r, domain.ChunkingSettings{Size: -1}.PipelineConfig())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
