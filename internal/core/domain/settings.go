package domain

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the backend that turns text into vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is any OpenAI-compatible /embeddings endpoint.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderHash is the offline feature-hashing embedder.
	EmbeddingProviderHash EmbeddingProvider = "hash"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderHash:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI-compatible endpoint"
	case EmbeddingProviderHash:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingCacheKind selects where computed embeddings are memoised.
type EmbeddingCacheKind string

// Available embedding caches.
const (
	EmbeddingCacheNone   EmbeddingCacheKind = "none"
	EmbeddingCacheMemory EmbeddingCacheKind = "memory"
	EmbeddingCacheSQLite EmbeddingCacheKind = "sqlite"
)

// IsValid returns true if the cache kind is recognised.
func (c EmbeddingCacheKind) IsValid() bool {
	switch c {
	case EmbeddingCacheNone, EmbeddingCacheMemory, EmbeddingCacheSQLite:
		return true
	default:
		return false
	}
}

// RetrievalStrategy defines how candidate chunks are selected.
type RetrievalStrategy string

// Available retrieval strategies.
const (
	// RetrievalSimilarity returns the top-k chunks by cosine similarity.
	RetrievalSimilarity RetrievalStrategy = "similarity"

	// RetrievalMMR re-ranks 2k candidates by maximal marginal relevance.
	RetrievalMMR RetrievalStrategy = "mmr"
)

// IsValid returns true if the strategy is recognised.
func (s RetrievalStrategy) IsValid() bool {
	return s == RetrievalSimilarity || s == RetrievalMMR
}

// Description returns a human-readable description of the strategy.
func (s RetrievalStrategy) Description() string {
	switch s {
	case RetrievalSimilarity:
		return "Similarity (top-k cosine)"
	case RetrievalMMR:
		return "MMR (diverse top-k)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the per-session vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendMemory  IndexBackend = "memory"
	IndexBackendChromem IndexBackend = "chromem"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendMemory || b == IndexBackendChromem
}

// EmptyContextPolicy decides what happens when retrieval finds nothing.
type EmptyContextPolicy string

// Available empty-context policies.
const (
	// EmptyContextGenerate still calls the model with an explicit marker.
	EmptyContextGenerate EmptyContextPolicy = "generate"

	// EmptyContextRefuse returns a fixed answer without calling the model.
	EmptyContextRefuse EmptyContextPolicy = "refuse"
)

// IsValid returns true if the policy is recognised.
func (p EmptyContextPolicy) IsValid() bool {
	return p == EmptyContextGenerate || p == EmptyContextRefuse
}

// LogFormat selects the log encoder.
type LogFormat string

// Available log formats.
const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// IsValid returns true if the format is recognised.
func (f LogFormat) IsValid() bool {
	return f == LogFormatConsole || f == LogFormatJSON
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI-compatible servers).
	APIKey string

	// BatchSize bounds texts per embedding request.
	BatchSize int

	// Cache selects the embedding cache.
	Cache EmbeddingCacheKind

	// CacheSize bounds the in-memory cache entries.
	CacheSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Model == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker parameters in characters.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// RetrievalSettings holds query-time retrieval parameters.
type RetrievalSettings struct {
	// TopK is used when a request asks for k <= 0.
	TopK int

	// MinScore is the relevance floor. Zero disables it.
	MinScore float64

	// Strategy is similarity or mmr.
	Strategy RetrievalStrategy
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	Backend IndexBackend
}

// AnswerSettings holds orchestrator behaviour.
type AnswerSettings struct {
	EmptyContext EmptyContextPolicy

	// MaxTokens caps generated tokens. Zero leaves it to the provider.
	MaxTokens int
}

// LLMSettings holds provider transport configuration.
type LLMSettings struct {
	// MaxAttempts bounds calls per request for retryable failures.
	MaxAttempts int

	// RequestsPerSecond throttles outgoing calls per provider.
	RequestsPerSecond float64

	// TimeoutSeconds bounds a single provider call.
	TimeoutSeconds int

	// OllamaURL is the Ollama server for generation.
	OllamaURL string
}

// LogSettings holds logger configuration.
type LogSettings struct {
	Level  string
	Format LogFormat

	// File, when set, receives a copy of every log line.
	File string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Index     IndexSettings
	Answer    AnswerSettings
	LLM       LLMSettings
	Log       LogSettings
}

// Default setting values.
const (
	DefaultEmbeddingModel    = "nomic-embed-text"
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultEmbeddingBatch    = 64
	DefaultEmbeddingCache    = 4096
	DefaultChunkSize         = 700
	DefaultChunkOverlap      = 100
	DefaultTopK              = 4
	DefaultMaxAttempts       = 3
	DefaultRequestsPerSecond = 2.0
	DefaultTimeoutSeconds    = 60
)

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  EmbeddingProviderOllama,
			Model:     DefaultEmbeddingModel,
			BaseURL:   DefaultOllamaURL,
			BatchSize: DefaultEmbeddingBatch,
			Cache:     EmbeddingCacheMemory,
			CacheSize: DefaultEmbeddingCache,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:     DefaultTopK,
			Strategy: RetrievalSimilarity,
		},
		Index: IndexSettings{
			Backend: IndexBackendMemory,
		},
		Answer: AnswerSettings{
			EmptyContext: EmptyContextGenerate,
		},
		LLM: LLMSettings{
			MaxAttempts:       DefaultMaxAttempts,
			RequestsPerSecond: DefaultRequestsPerSecond,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			OllamaURL:         DefaultOllamaURL,
		},
		Log: LogSettings{
			Level:  "warn",
			Format: LogFormatConsole,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
		EmbeddingProviderHash,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOllama: "nomic-embed-text",
		EmbeddingProviderOpenAI: "intfloat/multilingual-e5-large",
		EmbeddingProviderHash:   "hash-512",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI-compatible models
		"intfloat/multilingual-e5-large": 1024,
		"text-embedding-3-small":         1536,
		"text-embedding-3-large":         3072,
		// Offline
		"hash-512": 512,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added without
// modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfig derives the ingestion pipeline from chunking settings.
func (c ChunkingSettings) PipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return DefaultAppSettings().Chunking.PipelineConfig()
}
