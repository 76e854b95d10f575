// Package gemini provides an LLM provider adapter for the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/proto"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/retry"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure LLM implements the interface.
var _ driven.LLMProvider = (*LLM)(nil)

// DefaultLLMTimeout bounds a single generateContent call.
const DefaultLLMTimeout = 120 * time.Second

// Config holds configuration for the Gemini adapter.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model ID, e.g. gemini-2.5-flash (required).
	Model string

	// Endpoint overrides the API base URL. Used in tests.
	Endpoint string

	// Timeout bounds each call (default: 120s).
	Timeout time.Duration
}

// LLM calls models.generateContent over the REST transport.
type LLM struct {
	client  *generativelanguage.GenerativeClient
	model   string
	timeout time.Duration
}

// New creates a Gemini adapter authenticated with an API key.
func New(ctx context.Context, cfg Config) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderGemini,
			Kind:     domain.ErrInvalidCredential,
			Err:      errors.New("API key is required"),
		}
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: %w: model is required", domain.ErrInvalidProviderConfig)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := generativelanguage.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &LLM{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Generate produces a completion for the prompt.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	genCfg := &generativelanguagepb.GenerationConfig{
		Temperature:   proto.Float32(float32(opts.Temperature)),
		StopSequences: opts.StopWords,
	}
	if opts.MaxTokens > 0 {
		genCfg.MaxOutputTokens = proto.Int32(int32(opts.MaxTokens))
	}

	req := &generativelanguagepb.GenerateContentRequest{
		Model:            "models/" + l.model,
		Contents:         []*generativelanguagepb.Content{textContent("user", prompt)},
		GenerationConfig: genCfg,
	}
	if opts.System != "" {
		req.SystemInstruction = textContent("", opts.System)
	}

	// Retries belong to the retry wrapper, not the client.
	resp, err := l.client.GenerateContent(ctx, req, gax.WithRetry(nil))
	if err != nil {
		return "", classify(ctx, err)
	}

	candidates := resp.GetCandidates()
	if len(candidates) == 0 || candidates[0].GetContent() == nil {
		if reason := resp.GetPromptFeedback().GetBlockReason(); reason != 0 {
			return "", fmt.Errorf("gemini: prompt blocked: %s", reason)
		}
		return "", errors.New("gemini: no candidates returned")
	}

	var b strings.Builder
	for _, part := range candidates[0].GetContent().GetParts() {
		b.WriteString(part.GetText())
	}
	return b.String(), nil
}

func textContent(role, text string) *generativelanguagepb.Content {
	return &generativelanguagepb.Content{
		Role:  role,
		Parts: []*generativelanguagepb.Part{{Data: &generativelanguagepb.Part_Text{Text: text}}},
	}
}

// classify maps a client error onto the provider error taxonomy.
func classify(ctx context.Context, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Caller cancellation is not a provider fault.
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ctx.Err()
		}
		return &domain.ProviderError{Provider: domain.ProviderGemini, Kind: domain.ErrProviderUnavailable, Err: err}
	}

	perr := &domain.ProviderError{Provider: domain.ProviderGemini, StatusCode: gerr.Code, Err: errors.New(gerr.Message)}
	switch {
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden || isInvalidKey(gerr):
		perr.Kind = domain.ErrInvalidCredential
	case gerr.Code == http.StatusTooManyRequests:
		perr.Kind = domain.ErrRateLimited
		perr.RetryAfter = retry.ParseRetryAfter(gerr.Header.Get("Retry-After"), time.Now())
	case gerr.Code >= 500:
		perr.Kind = domain.ErrProviderUnavailable
	default:
		return fmt.Errorf("gemini error (status %d): %w", gerr.Code, err)
	}
	return perr
}

// isInvalidKey detects Gemini's 400 API_KEY_INVALID response.
func isInvalidKey(gerr *googleapi.Error) bool {
	if strings.Contains(gerr.Body, "API_KEY_INVALID") || strings.Contains(gerr.Message, "API key not valid") {
		return true
	}
	for _, item := range gerr.Errors {
		if item.Reason == "API_KEY_INVALID" {
			return true
		}
	}
	return false
}

// Name returns the provider identity.
func (l *LLM) Name() domain.ProviderName {
	return domain.ProviderGemini
}

// ModelName returns the name of the LLM model being used.
func (l *LLM) ModelName() string {
	return l.model
}
