package domain

// HealthReport describes whether the adapters assembled at startup are usable.
type HealthReport struct {
	// EmbeddingModel is the configured embedding model.
	EmbeddingModel string `json:"embedding_model"`

	// EmbeddingReachable is true when the embedding service answered a ping.
	EmbeddingReachable bool `json:"embedding_reachable"`

	// EmbeddingError holds the ping failure, if any.
	EmbeddingError string `json:"embedding_error,omitempty"`

	// Providers lists the LLM providers with a registered constructor.
	Providers []ProviderName `json:"providers"`
}

// Healthy reports whether questions can be answered with this setup.
func (r HealthReport) Healthy() bool {
	return r.EmbeddingReachable && len(r.Providers) > 0
}
