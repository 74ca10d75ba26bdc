package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/identity"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
)

// SubmitDocuments runs the document stage: decode, normalize, extract, and
// validate against the claim. Validation problems accumulate and are reported
// together; the session stays in documents-pending so the user can fix all of
// them and resubmit. Engine outages surface as a single collaborator failure
// instead. Stage-owned assets are removed on every exit path except the one
// that hands the primary raster to the face stage.
func (uc *VerificationUseCase) SubmitDocuments(
	ctx context.Context,
	sessionID string,
	aadhaar *ports.DocumentUpload,
	pan *ports.DocumentUpload,
) (*domain.VerificationSession, error) {
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != domain.StateDocumentsPending {
		return nil, domain.WrapError(domain.ErrStageOrder, "submit documents",
			fmt.Errorf("session is in state %s", session.State))
	}
	if aadhaar == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit documents",
			errors.New("aadhaar document is required"))
	}

	var verrs domain.ValidationErrors
	documents := make(map[domain.DocumentKind]domain.DocumentAsset)
	extractions := make(map[domain.DocumentKind]domain.ExtractionResult)
	var savedKeys []string

	release := func() {
		for _, key := range savedKeys {
			if err := uc.storage.Delete(ctx, key); err != nil {
				slog.Warn("remove stage asset", "session_id", sessionID, "key", key, "error", err)
			}
		}
	}

	asset, extraction, err := uc.processDocument(ctx, session, domain.DocumentAadhaar, *aadhaar, &verrs, &savedKeys)
	if err != nil {
		release()
		return nil, err
	}
	if asset != nil {
		documents[domain.DocumentAadhaar] = *asset
		extractions[domain.DocumentAadhaar] = *extraction

		if extraction.Identifier == "" {
			verrs = append(verrs, "could not read the aadhaar number from the document")
		} else if !strings.HasSuffix(extraction.Identifier, session.Claim.AadhaarLast4) {
			last4 := extraction.Identifier[len(extraction.Identifier)-4:]
			verrs = append(verrs, fmt.Sprintf("aadhaar mismatch: document ends in %s", last4))
		}
	}

	if pan != nil {
		panAsset, panExtraction, err := uc.processDocument(ctx, session, domain.DocumentPAN, *pan, &verrs, &savedKeys)
		if err != nil {
			release()
			return nil, err
		}
		if panAsset != nil {
			documents[domain.DocumentPAN] = *panAsset
			extractions[domain.DocumentPAN] = *panExtraction

			if session.Claim.PANNumber != "" {
				switch {
				case panExtraction.Identifier == "":
					verrs = append(verrs, "uploaded pan document but could not read its number")
				case panExtraction.Identifier != session.Claim.PANNumber:
					verrs = append(verrs, fmt.Sprintf("pan mismatch: document shows %s", panExtraction.Identifier))
				}
			}
		}
	}

	session.UpdatedAt = time.Now().UTC()

	if len(verrs) > 0 {
		release()
		session.ValidationIssues = verrs
		if err := uc.sessions.Update(ctx, session); err != nil {
			return nil, err
		}
		return session, domain.WrapError(domain.ErrInvalidInput, "validate documents", verrs)
	}

	session.ValidationIssues = nil
	session.Documents = documents
	session.Extractions = extractions
	// Validated documents advance straight to the face stage: presenting the
	// capture interface needs no further server-side work.
	session.State = domain.StateFacePending
	if err := uc.sessions.Update(ctx, session); err != nil {
		release()
		return nil, err
	}
	return session, nil
}

// processDocument decodes, normalizes, and extracts one upload. User-fixable
// problems are appended to verrs and reported with a nil asset; collaborator
// failures are returned as errors. Only the primary raster is persisted; it
// is the face-comparison reference; the secondary is needed for extraction
// alone.
func (uc *VerificationUseCase) processDocument(
	ctx context.Context,
	session *domain.VerificationSession,
	kind domain.DocumentKind,
	upload ports.DocumentUpload,
	verrs *domain.ValidationErrors,
	savedKeys *[]string,
) (*domain.DocumentAsset, *domain.ExtractionResult, error) {
	raster, err := uc.decoder.Decode(ctx, upload.Filename, upload.Data)
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrEngineFailure) {
			return nil, nil, err
		}
		*verrs = append(*verrs, fmt.Sprintf("could not decode the %s document", kind))
		return nil, nil, nil
	}

	normalized, blur := uc.normalizer.Normalize(raster.Image)
	bounds := normalized.Bounds()
	asset := domain.DocumentAsset{
		Kind:      kind,
		Filename:  upload.Filename,
		BlurScore: blur,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}

	if kind == domain.DocumentAadhaar {
		encoded, err := encodeJPEG(normalized)
		if err != nil {
			return nil, nil, domain.WrapError(domain.ErrDecode, "encode normalized document", err)
		}
		key := fmt.Sprintf("sessions/%s/%s.jpg", session.ID, kind)
		if err := uc.storage.Save(ctx, key, bytes.NewReader(encoded)); err != nil {
			return nil, nil, fmt.Errorf("store normalized document: %w", err)
		}
		asset.StorageKey = key
		*savedKeys = append(*savedKeys, key)
	}

	text := raster.TextLayer
	if text == "" {
		text, err = uc.ocr.ExtractText(ctx, normalized)
		if err != nil {
			return nil, nil, domain.WrapError(domain.ErrEngineFailure, fmt.Sprintf("ocr %s document", kind), err)
		}
	}

	extraction := domain.ExtractionResult{Kind: kind, FullText: text}
	switch kind {
	case domain.DocumentAadhaar:
		extraction.Identifier = identity.ExtractAadhaarNumber(text)
		extraction.Valid = identity.ValidateAadhaarNumber(extraction.Identifier)
	case domain.DocumentPAN:
		extraction.Identifier = identity.ExtractPANNumber(text)
		extraction.Valid = identity.ValidatePANNumber(extraction.Identifier)
	}
	return &asset, &extraction, nil
}

// removeAssets deletes every stored raster the session still references.
func (uc *VerificationUseCase) removeAssets(ctx context.Context, session *domain.VerificationSession) {
	for _, doc := range session.Documents {
		if doc.StorageKey == "" {
			continue
		}
		if err := uc.storage.Delete(ctx, doc.StorageKey); err != nil {
			slog.Warn("remove session asset", "session_id", session.ID, "key", doc.StorageKey, "error", err)
		}
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
