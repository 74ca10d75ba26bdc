package ports

import (
	"context"
	"image"
	"io"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

// SessionStore persists the per-session aggregate for the lifetime of one
// verification attempt. Implementations evict on TTL.
type SessionStore interface {
	Create(ctx context.Context, session *domain.VerificationSession) error
	Get(ctx context.Context, id string) (*domain.VerificationSession, error)
	Update(ctx context.Context, session *domain.VerificationSession) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores document rasters between pipeline stages.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// DocumentDecoder turns an uploaded file into a raster image. Corrupt or
// unsupported input yields an error of kind domain.ErrDecode.
type DocumentDecoder interface {
	Decode(ctx context.Context, filename string, data []byte) (*domain.Raster, error)
}

// ImageNormalizer prepares a raster for text extraction: geometry correction
// plus a blur score (variance of the Laplacian, higher = sharper).
type ImageNormalizer interface {
	Normalize(img image.Image) (image.Image, float64)
}

// TextExtractor is the external OCR engine. An empty string means the engine
// ran but read nothing; an error means the collaborator itself failed.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) (string, error)
}

// FaceMatcher is the external biometric comparison engine. A returned result
// with Matched=false and a Note is a soft failure; an error is a hard outage.
type FaceMatcher interface {
	Compare(ctx context.Context, document, live image.Image) (domain.FaceMatchResult, error)
}

// FraudModel is the optional trained classifier. Absence of the artifact is a
// normal configuration: callers hold a nil FraudModel and use the heuristic.
type FraudModel interface {
	PredictFraudProbability(features []float64) (float64, error)
}

// IdentifierGraph records which sessions presented which identifier hashes
// and reports prior reuse. Optional; advisory only.
type IdentifierGraph interface {
	RecordPresentation(ctx context.Context, sessionID, identifierHash string) (prior int, err error)
}

// DecisionStore is the durable audit trail of rendered decisions.
type DecisionStore interface {
	Create(ctx context.Context, rec *domain.DecisionRecord) error
	List(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
}

// EventPublisher fans decided sessions out to the audit worker.
type EventPublisher interface {
	PublishSessionDecided(ctx context.Context, rec domain.DecisionRecord) error
	SubscribeSessionDecided(ctx context.Context, handler func(context.Context, domain.DecisionRecord) error) error
}
