package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/services"
	"github.com/custodia-labs/manualqa/internal/normalisers"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
)

// testServices holds the real services wired by setupTestServices.
type testServices struct {
	sessions  *services.SessionStore
	settings  *services.SettingsService
	providers *stubProviders
}

// setupTestServices installs real services backed by the offline embedder,
// the in-memory index and a stub LLM.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	nr := normalisers.NewRegistry()
	normalisers.RegisterDefaults(nr)

	pr := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(pr)
	pipeline, err := postprocessors.BuildPipeline(pr, domain.DefaultPipelineConfig())
	require.NoError(t, err)

	embedder := hash.NewEmbeddingService(512)
	store := services.NewSessionStore(memory.NewVectorIndexFactory())
	retriever := services.NewRetriever(store, embedder, domain.RetrievalSettings{
		TopK:     domain.DefaultTopK,
		Strategy: domain.RetrievalSimilarity,
	})
	providers := &stubProviders{}
	settings := services.NewSettingsService(memory.NewConfigStore())

	SetServices(&Services{
		Ingest:    services.NewIngestService(store, nr, pipeline, embedder),
		Answer:    services.NewAnswerService(retriever, providers, domain.AnswerSettings{EmptyContext: domain.EmptyContextGenerate}),
		Sessions:  store,
		Providers: services.NewProviderCatalog(providers),
		Settings:  settings,
		Health: services.NewHealthService(ai.NewHealthChecker(&ai.Components{
			Embedder:  embedder,
			Providers: ai.NewRegistry(domain.LLMSettings{}),
		})),
	})

	prevLookup, prevTerm, prevRead := lookupEnv, stdinIsTerm, readPassword
	lookupEnv = func(string) string { return "" }
	stdinIsTerm = func() bool { return false }

	t.Cleanup(func() {
		SetServices(nil)
		lookupEnv, stdinIsTerm, readPassword = prevLookup, prevTerm, prevRead
	})

	return &testServices{sessions: store, settings: settings, providers: providers}
}

// resetFlags restores command flag variables between runs of the shared root command.
func resetFlags() {
	verbose = false
	configDir = ""
	askFiles = nil
	askSessionID = ""
	askJSON = false
	askProvider = providerFlags{provider: string(domain.ProviderGroq), temperature: domain.DefaultTemperature}
	chatFiles = nil
	chatProvider = providerFlags{provider: string(domain.ProviderGroq), temperature: domain.DefaultTemperature}
	providersJSON = false
	healthJSON = false
}

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeManual writes an HTML manual into a temp dir and returns its path.
func writeManual(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("<html><body>"+body+"</body></html>"), 0o600))
	return path
}

var contextLabel = regexp.MustCompile(`(?m)^\[([^\]\s]+#\d+)\]`)

// stubLLM cites the first context block of the prompt.
type stubLLM struct {
	cfg domain.ProviderConfig
	err error
}

func (l *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	if m := contextLabel.FindStringSubmatch(prompt); m != nil {
		return "Every 500 hours [" + m[1] + "].", nil
	}
	return "I don't know.", nil
}

func (l *stubLLM) Name() domain.ProviderName { return l.cfg.Provider }
func (l *stubLLM) ModelName() string         { return l.cfg.Model }

// stubProviders records requested configs. Key-requiring providers
// without a credential fail as the real registry does.
type stubProviders struct {
	mu       sync.Mutex
	err      error
	requests []domain.ProviderConfig
}

func (p *stubProviders) Provider(_ context.Context, cfg domain.ProviderConfig) (driven.LLMProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, cfg)

	if cfg.Provider.RequiresAPIKey() && cfg.Credential == "" {
		return nil, &domain.ProviderError{
			Provider: cfg.Provider,
			Kind:     domain.ErrInvalidCredential,
			Err:      errors.New("no API key"),
		}
	}
	return &stubLLM{cfg: cfg, err: p.err}, nil
}

func (p *stubProviders) Supports(name domain.ProviderName) bool {
	return name == domain.ProviderGroq || name == domain.ProviderOllama
}

func (p *stubProviders) last() domain.ProviderConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return domain.ProviderConfig{}
	}
	return p.requests[len(p.requests)-1]
}
