package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	"residency/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in process memory. Used for local runs and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.ApplicantSession
	emails   map[string]id.SessionID
}

// NewInMemory constructs an empty in-memory session store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[id.SessionID]*models.ApplicantSession),
		emails:   make(map[string]id.SessionID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.ApplicantSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrDuplicate
	}
	email := normalizeEmail(session.Profile.Email)
	if holdsEmail(session) {
		if _, taken := s.emails[email]; taken {
			return sentinel.ErrDuplicate
		}
		s.emails[email] = session.ID
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, sessionID id.SessionID) (*models.ApplicantSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return stored.Clone(), nil
}

// CompareAndSwap replaces the stored session if its version is expectedVersion.
// On success session.Version is expectedVersion+1.
func (s *InMemoryStore) CompareAndSwap(_ context.Context, session *models.ApplicantSession, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return sentinel.ErrConflict
	}

	oldEmail := normalizeEmail(stored.Profile.Email)
	newEmail := normalizeEmail(session.Profile.Email)
	if holdsEmail(session) && newEmail != oldEmail {
		if owner, taken := s.emails[newEmail]; taken && owner != session.ID {
			return sentinel.ErrDuplicate
		}
	}
	if owner, ok := s.emails[oldEmail]; ok && owner == session.ID {
		delete(s.emails, oldEmail)
	}
	if holdsEmail(session) {
		s.emails[newEmail] = session.ID
	}

	session.Version = expectedVersion + 1
	s.sessions[session.ID] = session.Clone()
	return nil
}

// FindActiveByEmail returns the non-terminal session holding email.
func (s *InMemoryStore) FindActiveByEmail(_ context.Context, email string) (*models.ApplicantSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.sessions[sessionID].Clone(), nil
}

// ListInactive returns non-terminal sessions last updated before cutoff, oldest first.
func (s *InMemoryStore) ListInactive(_ context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ApplicantSession
	for _, stored := range s.sessions {
		if stored.IsTerminal() || !stored.UpdatedAt.Before(cutoff) {
			continue
		}
		out = append(out, stored.Clone())
	}
	slices.SortFunc(out, func(a, b *models.ApplicantSession) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	if limit = limitOrDefault(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
