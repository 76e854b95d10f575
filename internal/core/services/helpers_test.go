package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/normalisers"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
)

// testStack wires the real in-process adapters around a stub LLM.
type testStack struct {
	store     *SessionStore
	embedder  driven.EmbeddingService
	ingest    *IngestService
	retriever *Retriever
	answers   *AnswerService
	providers *stubFactory
}

func newTestStack(t *testing.T, opts ...func(*stackOptions)) *testStack {
	t.Helper()

	o := stackOptions{
		embedder:  hash.NewEmbeddingService(512),
		retrieval: domain.RetrievalSettings{TopK: domain.DefaultTopK, Strategy: domain.RetrievalSimilarity},
		answer:    domain.AnswerSettings{EmptyContext: domain.EmptyContextGenerate},
	}
	for _, opt := range opts {
		opt(&o)
	}

	nr := normalisers.NewRegistry()
	normalisers.RegisterDefaults(nr)

	pr := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(pr)
	pipeline, err := postprocessors.BuildPipeline(pr, domain.DefaultPipelineConfig())
	require.NoError(t, err)

	store := NewSessionStore(memory.NewVectorIndexFactory())
	retriever := NewRetriever(store, o.embedder, o.retrieval)
	providers := &stubFactory{}

	return &testStack{
		store:     store,
		embedder:  o.embedder,
		ingest:    NewIngestService(store, nr, pipeline, o.embedder),
		retriever: retriever,
		answers:   NewAnswerService(retriever, providers, o.answer),
		providers: providers,
	}
}

type stackOptions struct {
	embedder  driven.EmbeddingService
	retrieval domain.RetrievalSettings
	answer    domain.AnswerSettings
}

func withEmbedder(e driven.EmbeddingService) func(*stackOptions) {
	return func(o *stackOptions) { o.embedder = e }
}

func withRetrieval(s domain.RetrievalSettings) func(*stackOptions) {
	return func(o *stackOptions) { o.retrieval = s }
}

func withAnswer(s domain.AnswerSettings) func(*stackOptions) {
	return func(o *stackOptions) { o.answer = s }
}

// mustIngest ingests files and fails the test on any per-file error.
func (s *testStack) mustIngest(t *testing.T, sessionID string, files ...domain.RawDocument) {
	t.Helper()
	results, err := s.ingest.Ingest(context.Background(), sessionID, files)
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err, r.Filename)
	}
}

func groqConfig() domain.ProviderConfig {
	return domain.ProviderConfig{Provider: domain.ProviderGroq, Model: "llama-3.1-8b-instant", Credential: "gsk-test"}
}

// labelPattern matches a context block header, not the citation example,
// and captures the first line of the block.
var labelPattern = regexp.MustCompile(`(?m)^\[([^\]\s]+#\d+)\][^\n]*\n([^\n]*)`)

// stubLLM answers by restating the first context block and citing its label.
type stubLLM struct {
	name  domain.ProviderName
	model string
	err   error

	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
}

func (l *stubLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.opts = append(l.opts, opts)
	l.mu.Unlock()

	if l.err != nil {
		return "", l.err
	}
	if m := labelPattern.FindStringSubmatch(prompt); m != nil {
		return "  " + m[2] + " [" + m[1] + "]  ", nil
	}
	return "I don't know.", nil
}

func (l *stubLLM) Name() domain.ProviderName { return l.name }
func (l *stubLLM) ModelName() string         { return l.model }

func (l *stubLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func (l *stubLLM) lastPrompt() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.prompts) == 0 {
		return ""
	}
	return l.prompts[len(l.prompts)-1]
}

// stubFactory builds stubLLMs and records the configs it was asked for.
// A groq request without a credential fails like the real registry does.
type stubFactory struct {
	mu       sync.Mutex
	llm      *stubLLM
	genErr   error
	requests []domain.ProviderConfig
}

func (f *stubFactory) Provider(_ context.Context, cfg domain.ProviderConfig) (driven.LLMProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, cfg)

	if cfg.Provider.RequiresAPIKey() && cfg.Credential == "" {
		return nil, &domain.ProviderError{
			Provider: cfg.Provider,
			Kind:     domain.ErrInvalidCredential,
			Err:      errors.New("no API key"),
		}
	}
	if f.llm == nil || f.llm.name != cfg.Provider || f.llm.model != cfg.Model {
		f.llm = &stubLLM{name: cfg.Provider, model: cfg.Model, err: f.genErr}
	}
	return f.llm, nil
}

func (f *stubFactory) Supports(name domain.ProviderName) bool {
	return name == domain.ProviderGroq || name == domain.ProviderOllama
}

func (f *stubFactory) last() *stubLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.llm
}

// failingEmbedder embeds queries but fails every batch.
type failingEmbedder struct {
	*hash.EmbeddingService
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("backend down")
}

// namedEmbedder reports a different model name.
type namedEmbedder struct {
	*hash.EmbeddingService
	name string
}

func (e namedEmbedder) ModelName() string { return e.name }
