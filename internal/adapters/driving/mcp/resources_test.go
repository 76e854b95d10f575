package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid session documents URI", "manualqa://sessions/s-123/documents", "s-123"},
		{"invalid prefix", "file://sessions/s-123/documents", ""},
		{"missing documents suffix", "manualqa://sessions/s-123", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSessionID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func testSessions() *mockSessionService {
	return &mockSessionService{sessions: []domain.SessionInfo{{
		ID:         "s1",
		Chunks:     12,
		Dimensions: 512,
		Model:      "hash-512",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Documents: []domain.Document{{
			ID:        "doc-1",
			Filename:  "hp200.pdf",
			Title:     "Hydraulic Press HP-200",
			Format:    domain.FormatPDF,
			PageCount: 48,
			Size:      1024,
		}},
	}}}
}

func TestServer_handleSessionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil session service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleSessionsResource(ctx, makeReadResourceRequest("manualqa://sessions"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists sessions", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: testSessions()})

		result, err := server.handleSessionsResource(ctx, makeReadResourceRequest("manualqa://sessions"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"id": "s1"`)
		assert.Contains(t, text, `"documents": 1`)
		assert.Contains(t, text, `"chunks": 12`)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil session service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("manualqa://sessions/s1/documents"))

		require.Error(t, err)
	})

	t.Run("returns documents", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: testSessions()})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("manualqa://sessions/s1/documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, "hp200.pdf")
		assert.Contains(t, text, "Hydraulic Press HP-200")
		assert.Contains(t, text, `"format": "pdf"`)
		assert.Contains(t, text, `"page_count": 48`)
	})

	t.Run("unknown session returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: testSessions()})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("manualqa://sessions/nope/documents"))

		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrSessionNotFound), "mapped to a resource error")
	})

	t.Run("malformed URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: testSessions()})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("manualqa://sessions/s1"))

		require.Error(t, err)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		sessions := testSessions()
		sessions.err = errors.New("index closed")
		server := newTestServer(t, &Ports{Sessions: sessions})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("manualqa://sessions/s1/documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting session")
	})
}
