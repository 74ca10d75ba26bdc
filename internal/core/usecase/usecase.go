// Package usecase orchestrates the verification pipeline: claim intake,
// document validation, biometric comparison, and the final decision. Stages
// advance strictly forward per session; access to one session is serialized
// through a keyed mutex so two concurrent requests can never interleave a
// load-mutate-store cycle.
package usecase

import (
	"context"
	"sync"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/risk"
)

type VerificationUseCase struct {
	sessions   ports.SessionStore
	storage    ports.ObjectStorage
	decoder    ports.DocumentDecoder
	normalizer ports.ImageNormalizer
	ocr        ports.TextExtractor
	faces      ports.FaceMatcher
	scorer     *risk.Scorer
	publisher  ports.EventPublisher  // nil disables audit events
	graph      ports.IdentifierGraph // nil disables the reuse check

	locks keyedLocks
}

func NewVerificationUseCase(
	sessions ports.SessionStore,
	storage ports.ObjectStorage,
	decoder ports.DocumentDecoder,
	normalizer ports.ImageNormalizer,
	ocr ports.TextExtractor,
	faces ports.FaceMatcher,
	scorer *risk.Scorer,
	publisher ports.EventPublisher,
	graph ports.IdentifierGraph,
) *VerificationUseCase {
	return &VerificationUseCase{
		sessions:   sessions,
		storage:    storage,
		decoder:    decoder,
		normalizer: normalizer,
		ocr:        ocr,
		faces:      faces,
		scorer:     scorer,
		publisher:  publisher,
		graph:      graph,
		locks:      keyedLocks{held: make(map[string]*sync.Mutex)},
	}
}

func (uc *VerificationUseCase) GetSession(ctx context.Context, sessionID string) (*domain.VerificationSession, error) {
	return uc.sessions.Get(ctx, sessionID)
}

// RestartSession destroys the session and every stored asset it owns. The
// user begins again from claim intake.
func (uc *VerificationUseCase) RestartSession(ctx context.Context, sessionID string) error {
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	uc.removeAssets(ctx, session)
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	uc.locks.forget(sessionID)
	return nil
}

// keyedLocks hands out one mutex per session id. Entries are dropped when a
// session is restarted; abandoned sessions leave a mutex behind until then,
// which is bounded by the session TTL in practice.
type keyedLocks struct {
	mu   sync.Mutex
	held map[string]*sync.Mutex
}

func (l *keyedLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.held[key]
	if !ok {
		m = &sync.Mutex{}
		l.held[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (l *keyedLocks) forget(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}
