package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedBatchSize = "embedding.batch_size"
	keyEmbedCache     = "embedding.cache"
	keyEmbedCacheSize = "embedding.cache_size"
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyTopK           = "retrieval.top_k"
	keyMinScore       = "retrieval.min_score"
	keyStrategy       = "retrieval.strategy"
	keyIndexBackend   = "index.backend"
	keyEmptyContext   = "answer.empty_context"
	keyMaxTokens      = "answer.max_tokens"
	keyMaxAttempts    = "llm.max_attempts"
	keyRPS            = "llm.requests_per_second"
	keyTimeout        = "llm.timeout_seconds"
	keyOllamaURL      = "llm.ollama_url"
	keyLogLevel       = "log.level"
	keyLogFormat      = "log.format"
	keyLogFile        = "log.file"
)

// settingKeys lists every settable key in display order.
var settingKeys = []string{
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
	keyEmbedBatchSize, keyEmbedCache, keyEmbedCacheSize,
	keyChunkSize, keyChunkOverlap,
	keyTopK, keyMinScore, keyStrategy,
	keyIndexBackend,
	keyEmptyContext, keyMaxTokens,
	keyMaxAttempts, keyRPS, keyTimeout, keyOllamaURL,
	keyLogLevel, keyLogFormat, keyLogFile,
}

// EnvPrefix prefixes environment overrides, e.g. MANUALQA_CHUNKING_SIZE.
const EnvPrefix = "MANUALQA_"

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
	now         func() time.Time
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
		now:         time.Now,
	}
}

// Get retrieves the effective settings: defaults, then stored values, then
// environment overrides. Invalid stored values are logged and ignored.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, key := range settingKeys {
		val, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		if err := apply(&settings, key, fmt.Sprint(val)); err != nil {
			logger.Warn("ignoring %s from %s: %v", key, s.configStore.Path(), err)
		}
	}

	s.applyEnv(&settings)
	return &settings, nil
}

// applyEnv applies MANUALQA_* overrides and the LOG_* variables.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	for _, key := range settingKeys {
		if v := s.getenv(EnvKey(key)); v != "" {
			if err := apply(settings, key, v); err != nil {
				logger.Warn("ignoring %s: %v", EnvKey(key), err)
			}
		}
	}

	if v := s.getenv("LOG_LEVEL"); v != "" {
		if _, err := logger.ParseLevel(v); err == nil {
			settings.Log.Level = strings.ToLower(v)
		}
	}
	// LOG_FORMAT may hold a format string meant for another logger; only
	// the encoder names are honoured.
	if v := domain.LogFormat(strings.ToLower(s.getenv("LOG_FORMAT"))); v.IsValid() {
		settings.Log.Format = v
	}
	if strings.EqualFold(strings.TrimSpace(s.getenv("LOG_TO_FILE")), "true") && settings.Log.File == "" {
		settings.Log.File = filepath.Join("logs", "manualqa_"+s.now().Format("02-01-2006-15-04")+".log")
	}
}

// Save persists application settings. An empty API key is not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, key := range settingKeys {
		val := value(settings, key)
		if key == keyEmbedAPIKey && val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set validates and persists a single key.
func (s *SettingsService) Set(key, raw string) error {
	settings := domain.DefaultAppSettings()
	if err := apply(&settings, key, raw); err != nil {
		return err
	}
	if err := s.configStore.Set(key, value(&settings, key)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks the effective settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings checks settings for values no component can run with.
func ValidateSettings(settings *domain.AppSettings) error {
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q with model %q",
			domain.ErrInvalidInput, settings.Embedding.Provider, settings.Embedding.Model)
	}
	if settings.Embedding.Provider == domain.EmbeddingProviderOpenAI && settings.Embedding.BaseURL == "" {
		return fmt.Errorf("%w: %s is required for the openai embedding provider", domain.ErrInvalidInput, keyEmbedBaseURL)
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyChunkSize)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("%w: %s must be in [0, %s)", domain.ErrInvalidInput, keyChunkOverlap, keyChunkSize)
	}
	if settings.Retrieval.MinScore < -1 || settings.Retrieval.MinScore > 1 {
		return fmt.Errorf("%w: %s must be in [-1, 1]", domain.ErrInvalidInput, keyMinScore)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys returns every settable key in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// GetPipelineConfig returns the ingestion pipeline derived from the effective settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return settings.Chunking.PipelineConfig()
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return key == keyEmbedAPIKey
}

// Value returns the display value of key, or false for an unknown key.
func Value(settings *domain.AppSettings, key string) (any, bool) {
	for _, k := range settingKeys {
		if k == key {
			return value(settings, key), true
		}
	}
	return nil, false
}

// apply parses raw and sets key on settings.
func apply(settings *domain.AppSettings, key, raw string) error {
	raw = strings.TrimSpace(raw)

	switch key {
	case keyEmbedProvider:
		p := domain.EmbeddingProvider(strings.ToLower(raw))
		if !p.IsValid() {
			return invalid(key, raw, "ollama, openai or hash")
		}
		settings.Embedding.Provider = p
	case keyEmbedModel:
		settings.Embedding.Model = raw
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = raw
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = raw
	case keyEmbedBatchSize:
		return setPositiveInt(&settings.Embedding.BatchSize, key, raw)
	case keyEmbedCache:
		c := domain.EmbeddingCacheKind(strings.ToLower(raw))
		if !c.IsValid() {
			return invalid(key, raw, "none, memory or sqlite")
		}
		settings.Embedding.Cache = c
	case keyEmbedCacheSize:
		return setPositiveInt(&settings.Embedding.CacheSize, key, raw)
	case keyChunkSize:
		return setPositiveInt(&settings.Chunking.Size, key, raw)
	case keyChunkOverlap:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return invalid(key, raw, "a non-negative integer")
		}
		settings.Chunking.Overlap = n
	case keyTopK:
		return setPositiveInt(&settings.Retrieval.TopK, key, raw)
	case keyMinScore:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return invalid(key, raw, "a number")
		}
		settings.Retrieval.MinScore = f
	case keyStrategy:
		st := domain.RetrievalStrategy(strings.ToLower(raw))
		if !st.IsValid() {
			return invalid(key, raw, "similarity or mmr")
		}
		settings.Retrieval.Strategy = st
	case keyIndexBackend:
		b := domain.IndexBackend(strings.ToLower(raw))
		if !b.IsValid() {
			return invalid(key, raw, "memory or chromem")
		}
		settings.Index.Backend = b
	case keyEmptyContext:
		p := domain.EmptyContextPolicy(strings.ToLower(raw))
		if !p.IsValid() {
			return invalid(key, raw, "generate or refuse")
		}
		settings.Answer.EmptyContext = p
	case keyMaxTokens:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return invalid(key, raw, "a non-negative integer")
		}
		settings.Answer.MaxTokens = n
	case keyMaxAttempts:
		return setPositiveInt(&settings.LLM.MaxAttempts, key, raw)
	case keyRPS:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return invalid(key, raw, "a non-negative number (0 disables throttling)")
		}
		settings.LLM.RequestsPerSecond = f
	case keyTimeout:
		return setPositiveInt(&settings.LLM.TimeoutSeconds, key, raw)
	case keyOllamaURL:
		settings.LLM.OllamaURL = raw
	case keyLogLevel:
		if _, err := logger.ParseLevel(raw); err != nil {
			return invalid(key, raw, "debug, info, warn or error")
		}
		settings.Log.Level = strings.ToLower(raw)
	case keyLogFormat:
		f := domain.LogFormat(strings.ToLower(raw))
		if !f.IsValid() {
			return invalid(key, raw, "console or json")
		}
		settings.Log.Format = f
	case keyLogFile:
		settings.Log.File = raw
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return nil
}

// value returns the typed value of key for storage and display.
func value(settings *domain.AppSettings, key string) any {
	switch key {
	case keyEmbedProvider:
		return settings.Embedding.Provider.String()
	case keyEmbedModel:
		return settings.Embedding.Model
	case keyEmbedBaseURL:
		return settings.Embedding.BaseURL
	case keyEmbedAPIKey:
		return settings.Embedding.APIKey
	case keyEmbedBatchSize:
		return settings.Embedding.BatchSize
	case keyEmbedCache:
		return string(settings.Embedding.Cache)
	case keyEmbedCacheSize:
		return settings.Embedding.CacheSize
	case keyChunkSize:
		return settings.Chunking.Size
	case keyChunkOverlap:
		return settings.Chunking.Overlap
	case keyTopK:
		return settings.Retrieval.TopK
	case keyMinScore:
		return settings.Retrieval.MinScore
	case keyStrategy:
		return string(settings.Retrieval.Strategy)
	case keyIndexBackend:
		return string(settings.Index.Backend)
	case keyEmptyContext:
		return string(settings.Answer.EmptyContext)
	case keyMaxTokens:
		return settings.Answer.MaxTokens
	case keyMaxAttempts:
		return settings.LLM.MaxAttempts
	case keyRPS:
		return settings.LLM.RequestsPerSecond
	case keyTimeout:
		return settings.LLM.TimeoutSeconds
	case keyOllamaURL:
		return settings.LLM.OllamaURL
	case keyLogLevel:
		return settings.Log.Level
	case keyLogFormat:
		return string(settings.Log.Format)
	case keyLogFile:
		return settings.Log.File
	default:
		return nil
	}
}

func setPositiveInt(dst *int, key, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return invalid(key, raw, "a positive integer")
	}
	*dst = n
	return nil
}

func invalid(key, raw, want string) error {
	return fmt.Errorf("%w: %s=%q, want %s", domain.ErrInvalidInput, key, raw, want)
}
