package ai

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/retry"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.LLMProviderFactory = (*Registry)(nil)

// Constructor builds an adapter for one request. cfg.Credential is already
// resolved when the constructor runs.
type Constructor func(ctx context.Context, cfg domain.ProviderConfig, settings domain.LLMSettings) (driven.LLMProvider, error)

// Registry maps provider names to constructors and resolves them at call time.
// Adapters are wrapped with bounded retries; the rate limiter is shared by
// every request to the same provider.
type Registry struct {
	mu           sync.Mutex
	constructors map[domain.ProviderName]Constructor
	limiters     map[domain.ProviderName]*retry.Limiter
	settings     domain.LLMSettings
	policy       retry.Policy
	getenv       func(string) string
}

// NewRegistry creates a registry with the groq, gemini and ollama adapters.
func NewRegistry(settings domain.LLMSettings) *Registry {
	policy := retry.DefaultPolicy()
	if settings.MaxAttempts > 0 {
		policy.MaxAttempts = settings.MaxAttempts
	}

	r := &Registry{
		constructors: make(map[domain.ProviderName]Constructor),
		limiters:     make(map[domain.ProviderName]*retry.Limiter),
		settings:     settings,
		policy:       policy,
		getenv:       os.Getenv,
	}
	r.Register(domain.ProviderGroq, newGroq)
	r.Register(domain.ProviderGemini, newGemini)
	r.Register(domain.ProviderOllama, newOllama)
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name domain.ProviderName, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = ctor
}

// Supports reports whether a constructor is registered for name.
func (r *Registry) Supports(name domain.ProviderName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.constructors[name]
	return ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []domain.ProviderName {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]domain.ProviderName, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Provider validates cfg, resolves its credential and builds the adapter.
func (r *Registry) Provider(ctx context.Context, cfg domain.ProviderConfig) (driven.LLMProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	ctor, ok := r.constructors[cfg.Provider]
	limiter := r.limiterLocked(cfg.Provider)
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", domain.ErrInvalidProviderConfig, cfg.Provider)
	}

	cfg = r.resolveCredential(cfg)
	logger.Debug("resolving provider %s", cfg)

	p, err := ctor(ctx, cfg, r.settings)
	if err != nil {
		return nil, err
	}
	return retry.Wrap(p, limiter, r.policy), nil
}

// resolveCredential fills a missing credential from the provider's env vars.
func (r *Registry) resolveCredential(cfg domain.ProviderConfig) domain.ProviderConfig {
	if cfg.Credential != "" {
		return cfg
	}
	for _, name := range cfg.Provider.CredentialEnvVars() {
		if v := r.getenv(name); v != "" {
			return cfg.WithCredential(v)
		}
	}
	return cfg
}

// limiterLocked returns the shared limiter for name. Callers must hold mu.
func (r *Registry) limiterLocked(name domain.ProviderName) *retry.Limiter {
	l, ok := r.limiters[name]
	if !ok {
		l = retry.NewLimiter(r.settings.RequestsPerSecond, 1)
		r.limiters[name] = l
	}
	return l
}

func timeout(settings domain.LLMSettings) time.Duration {
	if settings.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(settings.TimeoutSeconds) * time.Second
}

func newGroq(_ context.Context, cfg domain.ProviderConfig, settings domain.LLMSettings) (driven.LLMProvider, error) {
	return openai.New(openai.Config{
		Provider: domain.ProviderGroq,
		APIKey:   cfg.Credential,
		Model:    cfg.Model,
		Timeout:  timeout(settings),
	})
}

func newGemini(ctx context.Context, cfg domain.ProviderConfig, settings domain.LLMSettings) (driven.LLMProvider, error) {
	return gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Credential,
		Model:   cfg.Model,
		Timeout: timeout(settings),
	})
}

func newOllama(_ context.Context, cfg domain.ProviderConfig, settings domain.LLMSettings) (driven.LLMProvider, error) {
	return ollama.New(ollama.Config{
		BaseURL: settings.OllamaURL,
		Model:   cfg.Model,
		Timeout: timeout(settings),
	})
}
