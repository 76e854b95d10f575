package domain

import (
	"fmt"
	"strings"
)

// ProviderName identifies an LLM provider.
type ProviderName string

// Supported LLM providers.
const (
	// ProviderGroq is the Groq cloud API (OpenAI-compatible).
	ProviderGroq ProviderName = "groq"

	// ProviderGemini is the Google Gemini API.
	ProviderGemini ProviderName = "gemini"

	// ProviderOllama is a locally hosted Ollama instance.
	ProviderOllama ProviderName = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderGroq, ProviderGemini, ProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs a credential.
func (p ProviderName) RequiresAPIKey() bool {
	return p == ProviderGroq || p == ProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p ProviderName) IsLocal() bool {
	return p == ProviderOllama
}

// String returns the string representation.
func (p ProviderName) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p ProviderName) Description() string {
	switch p {
	case ProviderGroq:
		return "Groq"
	case ProviderGemini:
		return "Google Gemini"
	case ProviderOllama:
		return "Ollama (local)"
	default:
		return "Unknown"
	}
}

// CredentialEnvVars returns the environment variables consulted, in order,
// when a request carries no credential.
func (p ProviderName) CredentialEnvVars() []string {
	switch p {
	case ProviderGroq:
		return []string{"GROQ_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return nil
	}
}

// Temperature bounds accepted by every provider.
const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 0.7
)

// ProviderConfig selects and parameterises a provider for one request.
// It is never persisted. Construct with NewProviderConfig and treat as read-only.
type ProviderConfig struct {
	Provider    ProviderName
	Model       string
	Credential  string
	Temperature float64
}

// NewProviderConfig builds a validated ProviderConfig.
func NewProviderConfig(provider, model, credential string, temperature float64) (ProviderConfig, error) {
	cfg := ProviderConfig{
		Provider:    ProviderName(strings.ToLower(strings.TrimSpace(provider))),
		Model:       strings.TrimSpace(model),
		Credential:  strings.TrimSpace(credential),
		Temperature: temperature,
	}
	if err := cfg.Validate(); err != nil {
		return ProviderConfig{}, err
	}
	return cfg, nil
}

// Validate checks the provider, model and temperature.
// A missing credential is not an error here; adapters may resolve it from the
// environment and report ErrInvalidCredential if none is found.
func (c ProviderConfig) Validate() error {
	if !c.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidProviderConfig, c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidProviderConfig)
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f outside [%.1f, %.1f]",
			ErrInvalidProviderConfig, c.Temperature, MinTemperature, MaxTemperature)
	}
	return nil
}

// WithCredential returns a copy carrying the given credential.
func (c ProviderConfig) WithCredential(credential string) ProviderConfig {
	c.Credential = credential
	return c
}

// String omits the credential.
func (c ProviderConfig) String() string {
	return fmt.Sprintf("%s/%s (temperature %.2f)", c.Provider, c.Model, c.Temperature)
}

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ProviderInfo is a static capability declaration for a provider.
type ProviderInfo struct {
	Name           ProviderName `json:"name"`
	DisplayName    string       `json:"display_name"`
	KeyEnvVar      string       `json:"key_env_var,omitempty"`
	KeyURL         string       `json:"key_url,omitempty"`
	RequiresAPIKey bool         `json:"requires_api_key"`
	Models         []ModelInfo  `json:"models"`
}

// ModelIDs returns the model identifiers in declaration order.
func (p ProviderInfo) ModelIDs() []string {
	ids := make([]string, len(p.Models))
	for i, m := range p.Models {
		ids[i] = m.ID
	}
	return ids
}

// SupportedProviders returns the static provider and model catalogue.
func SupportedProviders() []ProviderInfo {
	return []ProviderInfo{
		{
			Name:           ProviderGroq,
			DisplayName:    ProviderGroq.Description(),
			KeyEnvVar:      "GROQ_API_KEY",
			KeyURL:         "https://console.groq.com",
			RequiresAPIKey: true,
			Models: []ModelInfo{
				{ID: "openai/gpt-oss-120b", DisplayName: "GPT-OSS 120B"},
				{ID: "llama-3.1-8b-instant", DisplayName: "Llama 3.1 8B Instant"},
				{ID: "groq/compound", DisplayName: "Groq Compound"},
			},
		},
		{
			Name:           ProviderGemini,
			DisplayName:    ProviderGemini.Description(),
			KeyEnvVar:      "GEMINI_API_KEY",
			KeyURL:         "https://aistudio.google.com",
			RequiresAPIKey: true,
			Models: []ModelInfo{
				{ID: "gemini-3.0-pro-preview", DisplayName: "Gemini 3.0 Pro Preview"},
				{ID: "gemini-3.0-flash-preview", DisplayName: "Gemini 3.0 Flash Preview"},
				{ID: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash"},
				{ID: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro"},
			},
		},
		{
			Name:        ProviderOllama,
			DisplayName: ProviderOllama.Description(),
			Models: []ModelInfo{
				{ID: "llama3.2", DisplayName: "Llama 3.2"},
				{ID: "qwen2.5", DisplayName: "Qwen 2.5"},
				{ID: "mistral", DisplayName: "Mistral"},
			},
		},
	}
}

// DefaultModel returns the first catalogued model for a provider.
func DefaultModel(provider ProviderName) string {
	for _, p := range SupportedProviders() {
		if p.Name == provider && len(p.Models) > 0 {
			return p.Models[0].ID
		}
	}
	return ""
}
