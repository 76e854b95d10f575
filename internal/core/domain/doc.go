// Package domain defines the core business entities for manualqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: An uploaded file before loading
//   - Document: A loaded manual with its extracted text
//   - Chunk: A retrievable span with provenance
//   - RetrievalResult: Scored chunks for one query
//   - Answer: Generated text with the sources it was given
//   - ProviderConfig: Per-request LLM selection
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
