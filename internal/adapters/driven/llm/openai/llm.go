// Package openai provides an LLM provider adapter for OpenAI-compatible
// chat completion APIs. Groq is served through it.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/retry"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure LLM implements the interface.
var _ driven.LLMProvider = (*LLM)(nil)

// Default configuration values.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	DefaultLLMTimeout = 120 * time.Second
)

// Config holds configuration for the chat completion adapter.
type Config struct {
	// Provider labels errors and answers (default: groq).
	Provider domain.ProviderName

	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL (default: Groq's OpenAI-compatible endpoint).
	BaseURL string

	// Model is the model ID (required).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLM calls /chat/completions.
type LLM struct {
	client   *http.Client
	provider domain.ProviderName
	baseURL  string
	apiKey   string
	model    string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	Stop        []string            `json:"stop,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// New creates a chat completion adapter.
func New(cfg Config) (*LLM, error) {
	if cfg.Provider == "" {
		cfg.Provider = domain.ProviderGroq
	}
	if cfg.APIKey == "" {
		return nil, &domain.ProviderError{
			Provider: cfg.Provider,
			Kind:     domain.ErrInvalidCredential,
			Err:      errors.New("API key is required"),
		}
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: %w: model is required", cfg.Provider, domain.ErrInvalidProviderConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLM{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		provider: cfg.Provider,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
	}, nil
}

// Generate produces a completion for the prompt.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var messages []chatCompletionMsg
	if opts.System != "" {
		messages = append(messages, chatCompletionMsg{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: prompt})

	reqBody := chatCompletionRequest{
		Model:       l.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		l.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", l.classify(0, "", fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", l.classify(0, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", l.classify(resp.StatusCode, resp.Header.Get("Retry-After"), errors.New(errorMessage(body)))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", l.provider, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%s error: %s", l.provider, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned", l.provider)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// classify maps a failed exchange onto the provider error taxonomy.
// Status 0 means the request never produced a response.
func (l *LLM) classify(status int, retryAfter string, cause error) error {
	perr := &domain.ProviderError{Provider: l.provider, StatusCode: status, Err: cause}
	switch {
	case status == 0:
		perr.Kind = domain.ErrProviderUnavailable
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		perr.Kind = domain.ErrInvalidCredential
	case status == http.StatusTooManyRequests:
		perr.Kind = domain.ErrRateLimited
		perr.RetryAfter = retry.ParseRetryAfter(retryAfter, time.Now())
	case status >= 500:
		perr.Kind = domain.ErrProviderUnavailable
	default:
		return fmt.Errorf("%s error (status %d): %w", l.provider, status, cause)
	}
	return perr
}

// errorMessage extracts the API error message, falling back to the raw body.
func errorMessage(body []byte) string {
	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return string(body)
}

// Name returns the provider identity.
func (l *LLM) Name() domain.ProviderName {
	return l.provider
}

// ModelName returns the name of the LLM model being used.
func (l *LLM) ModelName() string {
	return l.model
}
