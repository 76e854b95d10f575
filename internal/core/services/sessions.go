package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure SessionStore implements the interface.
var _ driving.SessionService = (*SessionStore)(nil)

// Session owns one vector index and the documents ingested into it.
type Session struct {
	id        string
	createdAt time.Time
	index     driven.VectorIndex

	// ingestMu serialises ingestion commits. Queries never take it.
	ingestMu sync.Mutex

	mu    sync.RWMutex
	docs  []domain.Document
	model string
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Index returns the session's vector index.
func (s *Session) Index() driven.VectorIndex { return s.index }

// Model returns the embedding model that built the index, or "" before the first ingest.
func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Documents returns a copy of the ingested documents in ingestion order.
func (s *Session) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Document(nil), s.docs...)
}

// Info summarises the session.
func (s *Session) Info() domain.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SessionInfo{
		ID:         s.id,
		Documents:  append([]domain.Document(nil), s.docs...),
		Chunks:     s.index.Len(),
		Dimensions: s.index.Dimensions(),
		Model:      s.model,
		CreatedAt:  s.createdAt,
	}
}

func (s *Session) record(docs []domain.Document, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
	if s.model == "" {
		s.model = model
	}
}

// slot guards construction and teardown of one session id.
type slot struct {
	mu      sync.Mutex
	session *Session
}

// SessionStore maps session ids to sessions. Each id has its own lock, so
// building one session's index never blocks access to another session.
type SessionStore struct {
	mu      sync.Mutex
	slots   map[string]*slot
	factory driven.VectorIndexFactory
}

// NewSessionStore creates an empty store that builds indexes with factory.
func NewSessionStore(factory driven.VectorIndexFactory) *SessionStore {
	return &SessionStore{
		slots:   make(map[string]*slot),
		factory: factory,
	}
}

// ValidateSessionID rejects blank ids.
func ValidateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return nil
}

// GetOrCreate returns the session for id, creating an empty one on first use.
func (s *SessionStore) GetOrCreate(id string) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	for {
		sl := s.slotFor(id, true)

		sl.mu.Lock()
		if !s.current(id, sl) {
			// Deleted while we waited; start over with a fresh slot.
			sl.mu.Unlock()
			continue
		}
		if sl.session == nil {
			index, err := s.factory(id)
			if err != nil {
				sl.mu.Unlock()
				return nil, fmt.Errorf("creating index for session %s: %w", id, err)
			}
			sl.session = &Session{id: id, createdAt: time.Now(), index: index}
			logger.Info("created session %s", id)
		}
		sess := sl.session
		sl.mu.Unlock()
		return sess, nil
	}
}

// Get returns the session for id.
func (s *SessionStore) Get(id string) (*Session, error) {
	sl := s.slotFor(id, false)
	if sl == nil {
		return nil, &domain.SessionNotFoundError{SessionID: id}
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.session == nil {
		return nil, &domain.SessionNotFoundError{SessionID: id}
	}
	return sl.session, nil
}

// Delete tears down the session's index and forgets its documents.
// Ingesting under the same id afterwards starts an empty session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	sl := s.slotFor(id, false)
	if sl == nil {
		return &domain.SessionNotFoundError{SessionID: id}
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	sess := sl.session
	if sess == nil {
		return &domain.SessionNotFoundError{SessionID: id}
	}
	sl.session = nil

	s.mu.Lock()
	if s.slots[id] == sl {
		delete(s.slots, id)
	}
	s.mu.Unlock()

	if err := sess.index.Delete(ctx); err != nil {
		return fmt.Errorf("deleting index for session %s: %w", id, err)
	}
	logger.Info("removed session %s", id)
	return nil
}

// List returns every live session sorted by id.
func (s *SessionStore) List() []domain.SessionInfo {
	s.mu.Lock()
	slots := make([]*slot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, sl)
	}
	s.mu.Unlock()

	infos := make([]domain.SessionInfo, 0, len(slots))
	for _, sl := range slots {
		sl.mu.Lock()
		sess := sl.session
		sl.mu.Unlock()
		if sess != nil {
			infos = append(infos, sess.Info())
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// RemoveSession implements driving.SessionService.
func (s *SessionStore) RemoveSession(ctx context.Context, id string) error {
	return s.Delete(ctx, id)
}

// ListSessions implements driving.SessionService.
func (s *SessionStore) ListSessions(_ context.Context) []domain.SessionInfo {
	return s.List()
}

// Session implements driving.SessionService.
func (s *SessionStore) Session(_ context.Context, id string) (*domain.SessionInfo, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	info := sess.Info()
	return &info, nil
}

func (s *SessionStore) slotFor(id string, create bool) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok && create {
		sl = &slot{}
		s.slots[id] = sl
	}
	return sl
}

func (s *SessionStore) current(id string, sl *slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id] == sl
}
