package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// SessionService exposes session lifecycle to external actors.
type SessionService interface {
	// RemoveSession tears down the session index and its documents.
	RemoveSession(ctx context.Context, id string) error

	// ListSessions returns every live session, sorted by id.
	ListSessions(ctx context.Context) []domain.SessionInfo

	// Session returns a summary of one session.
	Session(ctx context.Context, id string) (*domain.SessionInfo, error)
}
