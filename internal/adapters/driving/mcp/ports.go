package mcp

import (
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingest loads uploaded manuals into sessions.
	Ingest driving.IngestService

	// Answer retrieves context and generates cited answers.
	Answer driving.AnswerService

	// Sessions lists and removes sessions. Optional.
	Sessions driving.SessionService

	// Providers lists selectable LLM providers. Optional; the static
	// catalogue is used when nil.
	Providers driving.ProviderCatalog

	// Health reports embedder reachability and registered providers. Optional.
	Health driving.HealthService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
