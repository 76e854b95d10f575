// Package ollama provides an LLM provider adapter for a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure LLM implements the interface.
var _ driven.LLMProvider = (*LLM)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama LLM adapter.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLM generates completions through langchaingo's Ollama client.
// Ollama needs no credential; Config.Credential is ignored.
type LLM struct {
	model   llms.Model
	name    string
	timeout time.Duration
}

// New creates an Ollama LLM adapter.
func New(cfg Config) (*LLM, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	client, err := lcollama.New(
		lcollama.WithServerURL(strings.TrimSuffix(cfg.BaseURL, "/")),
		lcollama.WithModel(cfg.Model),
		lcollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", domain.ErrInvalidProviderConfig, err)
	}
	return newWithModel(client, cfg.Model, cfg.Timeout), nil
}

func newWithModel(model llms.Model, name string, timeout time.Duration) *LLM {
	return &LLM{model: model, name: name, timeout: timeout}
}

// Generate produces a completion for the prompt.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(opts.StopWords))
	}

	var messages []llms.MessageContent
	if opts.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, opts.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := l.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", classify(ctx, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("ollama: empty response from model")
	}
	return resp.Choices[0].Content, nil
}

// classify marks transport failures as unavailability. Everything else,
// such as an unknown model, is returned as-is.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "connection refused") {
		return &domain.ProviderError{
			Provider: domain.ProviderOllama,
			Kind:     domain.ErrProviderUnavailable,
			Err:      err,
		}
	}
	return fmt.Errorf("ollama: %w", err)
}

// Name returns the provider identity.
func (l *LLM) Name() domain.ProviderName {
	return domain.ProviderOllama
}

// ModelName returns the name of the LLM model being used.
func (l *LLM) ModelName() string {
	return l.name
}
