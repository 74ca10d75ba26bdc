package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

type entry struct {
	session   domain.VerificationSession
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, session *domain.VerificationSession) error {
	return s.write(session)
}

func (s *MemoryStore) Update(ctx context.Context, session *domain.VerificationSession) error {
	return s.write(session)
}

func (s *MemoryStore) write(session *domain.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = entry{session: *session, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.VerificationSession, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "load session", fmt.Errorf("id %s", id))
	}
	copied := e.session
	return &copied, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
