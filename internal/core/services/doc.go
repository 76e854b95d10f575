// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion path runs normaliser, chunking pipeline, embedder and the
// session's vector index. The query path runs the retriever and an LLM
// provider resolved per request. SessionStore owns every session and is
// injected into both paths.
package services
