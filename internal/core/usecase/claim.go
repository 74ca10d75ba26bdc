package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/identity"
)

const dateLayout = "2006-01-02"

var lastFourPattern = regexp.MustCompile(`^[0-9]{4}$`)

// StartSession validates the declared identity claim and creates a session in
// the documents-pending state. A malformed claim reports every problem at
// once and creates nothing.
func (uc *VerificationUseCase) StartSession(ctx context.Context, claim domain.IdentityClaim) (*domain.VerificationSession, error) {
	var verrs domain.ValidationErrors

	claim.FullName = strings.TrimSpace(claim.FullName)
	if claim.FullName == "" {
		verrs = append(verrs, "full name is required")
	}

	claim.DateOfBirth = strings.TrimSpace(claim.DateOfBirth)
	if _, err := time.Parse(dateLayout, claim.DateOfBirth); err != nil {
		verrs = append(verrs, "date of birth must be a valid YYYY-MM-DD date")
	}

	claim.AadhaarLast4 = strings.TrimSpace(claim.AadhaarLast4)
	if !lastFourPattern.MatchString(claim.AadhaarLast4) {
		verrs = append(verrs, "aadhaar last-4 must be exactly four digits")
	}

	if claim.PANNumber != "" {
		claim.PANNumber = identity.NormalizePAN(claim.PANNumber)
		if !identity.ValidatePANNumber(claim.PANNumber) {
			verrs = append(verrs, "pan number must be five letters, four digits, one letter")
		}
	}

	if len(verrs) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "claim intake", verrs)
	}

	now := time.Now().UTC()
	session := &domain.VerificationSession{
		ID:        uuid.NewString(),
		State:     domain.StateDocumentsPending,
		Claim:     claim,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
