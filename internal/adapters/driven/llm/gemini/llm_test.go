package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, url string) *LLM {
	t.Helper()
	l, err := New(context.Background(), Config{
		APIKey:   "AIza-test",
		Model:    "gemini-2.5-flash",
		Endpoint: url,
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return l
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "gemini-2.5-flash"})
	assert.True(t, domain.IsInvalidCredential(err))

	_, err = New(context.Background(), Config{APIKey: "k"})
	assert.ErrorIs(t, err, domain.ErrInvalidProviderConfig)
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		assert.True(t, r.URL.Query().Get("key") == "AIza-test" || r.Header.Get("X-Goog-Api-Key") == "AIza-test")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		genCfg, _ := req["generationConfig"].(map[string]any)
		require.NotNil(t, genCfg)
		assert.Equal(t, 0.0, genCfg["temperature"])
		assert.Nil(t, genCfg["maxOutputTokens"])

		system, _ := req["systemInstruction"].(map[string]any)
		require.NotNil(t, system)
		parts, _ := system["parts"].([]any)
		require.Len(t, parts, 1)
		assert.Equal(t, "You read pump manuals.", parts[0].(map[string]any)["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Every 500 hours "},{"text":"[manual.pdf#1]"}]}}]}`))
	}))
	defer server.Close()

	out, err := newTestLLM(t, server.URL).Generate(context.Background(), "How often?",
		driven.GenerateOptions{System: "You read pump manuals."})
	require.NoError(t, err)
	assert.Equal(t, "Every 500 hours [manual.pdf#1]", out)
}

func TestGenerate_NoSystemInstruction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotContains(t, req, "systemInstruction")

		genCfg, _ := req["generationConfig"].(map[string]any)
		require.NotNil(t, genCfg)
		assert.Equal(t, 64.0, genCfg["maxOutputTokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	out, err := newTestLLM(t, server.URL).Generate(context.Background(), "q", driven.GenerateOptions{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		kind       error
		retryAfter time.Duration
	}{
		{
			"api key invalid",
			400,
			`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`,
			domain.ErrInvalidCredential,
			0,
		},
		{"permission denied", 403, `{"error":{"code":403,"message":"denied"}}`, domain.ErrInvalidCredential, 0},
		{"quota", 429, `{"error":{"code":429,"message":"Resource exhausted"}}`, domain.ErrRateLimited, 7 * time.Second},
		{"overloaded", 503, `{"error":{"code":503,"message":"The model is overloaded"}}`, domain.ErrProviderUnavailable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				if tt.retryAfter > 0 {
					w.Header().Set("Retry-After", "7")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestLLM(t, server.URL).Generate(context.Background(), "q", driven.GenerateOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var perr *domain.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, domain.ProviderGemini, perr.Provider)
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.Equal(t, tt.retryAfter, perr.RetryAfter)
			assert.Equal(t, int32(1), calls.Load(), "the client must not retry on its own")
		})
	}
}

func TestGenerate_BadRequestIsUnclassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"model not found"}}`))
	}))
	defer server.Close()

	_, err := newTestLLM(t, server.URL).Generate(context.Background(), "q", driven.GenerateOptions{})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
	assert.False(t, domain.IsInvalidCredential(err))
}

func TestGenerate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestLLM(t, url).Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.True(t, domain.IsProviderUnavailable(err))
}

func TestGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := newTestLLM(t, server.URL).Generate(context.Background(), "q", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestNameAndModel(t *testing.T) {
	l := newTestLLM(t, "http://127.0.0.1:0")
	assert.Equal(t, domain.ProviderGemini, l.Name())
	assert.Equal(t, "gemini-2.5-flash", l.ModelName())
}
