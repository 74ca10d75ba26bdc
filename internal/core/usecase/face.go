package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/identity"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
)

// SubmitFace runs the final stage: decode the live photo, compare it against
// the stored document raster, score the risk, and render the decision. The
// session always reaches the decided state on a successful engine round trip;
// the verdict, not the transition, encodes approval. A decode failure or a
// hard engine outage leaves the session in place for resubmission.
func (uc *VerificationUseCase) SubmitFace(ctx context.Context, sessionID string, photo ports.DocumentUpload) (*domain.VerificationSession, error) {
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != domain.StateFacePending && session.State != domain.StateDocumentsValidated {
		return nil, domain.WrapError(domain.ErrStageOrder, "submit face",
			fmt.Errorf("session is in state %s", session.State))
	}

	live, err := uc.decoder.Decode(ctx, photo.Filename, photo.Data)
	if err != nil {
		return nil, err
	}

	docAsset, hasDoc := session.Document(domain.DocumentAadhaar)
	extraction, hasExtraction := session.Extraction(domain.DocumentAadhaar)
	if !hasDoc || docAsset.StorageKey == "" || !hasExtraction {
		return nil, uc.abort(ctx, session, errors.New("primary document asset missing"))
	}

	docImage, err := uc.loadRaster(ctx, docAsset.StorageKey)
	if err != nil {
		return nil, uc.abort(ctx, session, err)
	}

	result, err := uc.faces.Compare(ctx, docImage, live.Image)
	if err != nil {
		// Hard outage: the document raster stays put so the user can retry
		// by resubmitting a live photo.
		return nil, domain.WrapError(domain.ErrEngineFailure, "face comparison", err)
	}

	identifierPct := 0.0
	if extraction.Identifier != "" && strings.HasSuffix(extraction.Identifier, session.Claim.AadhaarLast4) {
		identifierPct = 100
	}
	assessment := uc.scorer.Score(result.Score, identifierPct, extraction.Valid, docAsset.BlurScore)

	session.FaceMatch = &result
	session.Risk = &assessment
	session.Decision = domain.DecisionRejected
	if result.Matched {
		session.Decision = domain.DecisionApproved
	}
	session.State = domain.StateDecided
	session.UpdatedAt = time.Now().UTC()

	if uc.graph != nil && extraction.Identifier != "" {
		sum := sha256.Sum256([]byte(extraction.Identifier))
		prior, err := uc.graph.RecordPresentation(ctx, session.ID, hex.EncodeToString(sum[:]))
		if err != nil {
			slog.Warn("identifier reuse check failed", "session_id", session.ID, "error", err)
		} else {
			session.IdentifierReuse = prior
		}
	}

	if err := uc.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	// The decision is rendered; audit fan-out and asset cleanup are best
	// effort relative to it.
	uc.publishDecision(ctx, session, extraction)
	if err := uc.storage.Delete(ctx, docAsset.StorageKey); err != nil {
		slog.Warn("remove document asset", "session_id", session.ID, "key", docAsset.StorageKey, "error", err)
	}
	return session, nil
}

// abort marks the session irrecoverably broken; the user must restart from
// claim intake.
func (uc *VerificationUseCase) abort(ctx context.Context, session *domain.VerificationSession, cause error) error {
	uc.removeAssets(ctx, session)
	session.State = domain.StateAborted
	session.UpdatedAt = time.Now().UTC()
	if err := uc.sessions.Update(ctx, session); err != nil {
		slog.Error("persist aborted session", "session_id", session.ID, "error", err)
	}
	return domain.WrapError(domain.ErrSessionCorrupt, "submit face", cause)
}

func (uc *VerificationUseCase) loadRaster(ctx context.Context, key string) (image.Image, error) {
	reader, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open stored raster: %w", err)
	}
	defer reader.Close()

	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode stored raster: %w", err)
	}
	return img, nil
}

func (uc *VerificationUseCase) publishDecision(ctx context.Context, session *domain.VerificationSession, extraction domain.ExtractionResult) {
	if uc.publisher == nil {
		return
	}
	_, panProvided := session.Extraction(domain.DocumentPAN)
	record := domain.DecisionRecord{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		Outcome:         session.Decision,
		FaceScore:       session.FaceMatch.Score,
		FaceNote:        session.FaceMatch.Note,
		RiskScore:       session.Risk.Score,
		RiskSource:      session.Risk.Source,
		AadhaarMasked:   identity.MaskAadhaar(extraction.Identifier),
		PANProvided:     panProvided,
		IdentifierReuse: session.IdentifierReuse,
		DecidedAt:       session.UpdatedAt,
	}
	if err := uc.publisher.PublishSessionDecided(ctx, record); err != nil {
		slog.Warn("publish decision event", "session_id", session.ID, "error", err)
	}
}
