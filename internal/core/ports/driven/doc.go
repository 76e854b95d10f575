// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Ingestion
//
//   - Normaliser: Loads one document format into text
//   - NormaliserRegistry: Dispatches on the declared format
//   - PostProcessor: Splits documents into chunks (chunker)
//   - EmbeddingService: Turns text into vectors
//   - EmbeddingCache: Memoises vectors by model and text
//
// # Retrieval
//
//   - VectorIndex: Per-session insert and top-k search
//   - VectorIndexFactory: Builds a fresh index for a new session
//
// # Generation
//
//   - LLMProvider: Uniform completion over remote and local models
//   - LLMProviderFactory: Resolves a provider from a ProviderConfig at call time
//   - PromptStore: User-editable answer prompt texts
//   - AIHealthChecker: Embedder reachability and registered providers
//
// # Configuration
//
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
