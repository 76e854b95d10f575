package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	results []domain.IngestResult
	err     error

	sessionID string
	files     []domain.RawDocument
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	sessionID string,
	files []domain.RawDocument,
) ([]domain.IngestResult, error) {
	m.sessionID = sessionID
	m.files = files
	if m.err != nil {
		return nil, m.err
	}
	if m.results != nil {
		return m.results, nil
	}
	results := make([]domain.IngestResult, len(files))
	for i, f := range files {
		results[i] = domain.IngestResult{Filename: f.Filename, DocumentID: "doc-" + f.Filename, Chunks: 1}
	}
	return results, nil
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	result domain.RetrievalResult
	err    error

	cfg domain.ProviderConfig
	k   int
}

func (m *mockAnswerService) Ask(
	_ context.Context,
	_, _ string,
	cfg domain.ProviderConfig,
	k int,
) (*domain.Answer, error) {
	m.cfg = cfg
	m.k = k
	return m.answer, m.err
}

func (m *mockAnswerService) Retrieve(_ context.Context, _, _ string, k int) (domain.RetrievalResult, error) {
	m.k = k
	return m.result, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	sessions []domain.SessionInfo
	err      error
	removed  string
}

func (m *mockSessionService) RemoveSession(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = id
	return nil
}

func (m *mockSessionService) ListSessions(_ context.Context) []domain.SessionInfo {
	return m.sessions
}

func (m *mockSessionService) Session(_ context.Context, id string) (*domain.SessionInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, &domain.SessionNotFoundError{SessionID: id}
}

// mockProviderCatalog is a mock implementation of driving.ProviderCatalog.
type mockProviderCatalog struct {
	providers []domain.ProviderInfo
}

func (m *mockProviderCatalog) ListSupportedProviders() []domain.ProviderInfo {
	return m.providers
}

func (m *mockProviderCatalog) Provider(name domain.ProviderName) (domain.ProviderInfo, bool) {
	for _, p := range m.providers {
		if p.Name == name {
			return p, true
		}
	}
	return domain.ProviderInfo{}, false
}

// mockHealthService is a mock implementation of driving.HealthService.
type mockHealthService struct {
	report domain.HealthReport
}

func (m *mockHealthService) Check(_ context.Context) domain.HealthReport {
	return m.report
}

// newTestServer fills the required ports with defaults.
func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Ingest == nil {
		ports.Ingest = &mockIngestService{}
	}
	if ports.Answer == nil {
		ports.Answer = &mockAnswerService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}
