// Package mcp provides an MCP (Model Context Protocol) server adapter for manualqa.
// It lets AI assistants upload manuals into a session and ask cited questions about them.
package mcp

import "errors"

var (
	// ErrMissingIngestService is returned when the ingest service is not provided.
	ErrMissingIngestService = errors.New("mcp: ingest service is required")

	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// errNoSessionService is returned by session tools when sessions are not exposed.
	errNoSessionService = errors.New("mcp: session service not configured")

	// errNoHealthService is returned by the health tool when health is not exposed.
	errNoHealthService = errors.New("mcp: health service not configured")
)
