package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for manualqa resources.
	uriScheme = "manualqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Live sessions with their document and chunk counts",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/documents",
		Name:        "session-documents",
		Description: "Manuals loaded into a specific session",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

type sessionInfo struct {
	ID         string    `json:"id"`
	Documents  int       `json:"documents"`
	Chunks     int       `json:"chunks"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type documentInfo struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Title     string `json:"title"`
	Format    string `json:"format"`
	PageCount int    `json:"page_count,omitempty"`
	Size      int    `json:"size"`
}

// handleSessionsResource lists live sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return jsonResult(req.Params.URI, []sessionInfo{})
	}

	sessions := s.ports.Sessions.ListSessions(ctx)
	infos := make([]sessionInfo, len(sessions))
	for i := range sessions {
		infos[i] = sessionInfo{
			ID:         sessions[i].ID,
			Documents:  len(sessions[i].Documents),
			Chunks:     sessions[i].Chunks,
			Dimensions: sessions[i].Dimensions,
			Model:      sessions[i].Model,
			CreatedAt:  sessions[i].CreatedAt,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDocumentsResource lists the documents of one session.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// manualqa://sessions/{sessionId}/documents
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, err := s.ports.Sessions.Session(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	docs := make([]documentInfo, len(info.Documents))
	for i := range info.Documents {
		d := &info.Documents[i]
		docs[i] = documentInfo{
			ID:        d.ID,
			Filename:  d.Filename,
			Title:     d.Title,
			Format:    d.Format.String(),
			PageCount: d.PageCount,
			Size:      d.Size,
		}
	}
	return jsonResult(req.Params.URI, docs)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like manualqa://sessions/{sessionId}/documents.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
