package ports

import (
	"context"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

// DocumentUpload is one file received from the user, fully buffered.
type DocumentUpload struct {
	Filename string
	Data     []byte
}

// VerificationPipeline is the inbound contract for the session state machine.
// Stages are strictly ordered; each call either advances the session, leaves
// it in place with a reported problem, or restarts it.
type VerificationPipeline interface {
	StartSession(ctx context.Context, claim domain.IdentityClaim) (*domain.VerificationSession, error)
	SubmitDocuments(ctx context.Context, sessionID string, aadhaar *DocumentUpload, pan *DocumentUpload) (*domain.VerificationSession, error)
	SubmitFace(ctx context.Context, sessionID string, photo DocumentUpload) (*domain.VerificationSession, error)
	GetSession(ctx context.Context, sessionID string) (*domain.VerificationSession, error)
	RestartSession(ctx context.Context, sessionID string) error
}
