package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

func TestDecisionRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDecisionRepository(db)
	rec := &domain.DecisionRecord{
		ID:            "d-1",
		SessionID:     "s-1",
		Outcome:       domain.DecisionApproved,
		FaceScore:     87.5,
		RiskScore:     10,
		RiskSource:    domain.RiskSourceHeuristic,
		AadhaarMasked: "XXXX-XXXX-0124",
		PANProvided:   true,
		DecidedAt:     time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO decisions").
		WithArgs(rec.ID, rec.SessionID, "approved", rec.FaceScore, "", rec.RiskScore, "heuristic", rec.AadhaarMasked, true, 0, rec.DecidedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDecisionRepositoryListNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDecisionRepository(db)
	rows := sqlmock.NewRows([]string{"id", "session_id", "outcome", "face_score", "face_note", "risk_score", "risk_source", "aadhaar_masked", "pan_provided", "identifier_reuse", "decided_at"}).
		AddRow("d-2", "s-2", "rejected", 12.0, "no face detected", 60.0, "heuristic", "XXXX-XXXX-9999", false, 1, time.Now()).
		AddRow("d-1", "s-1", "approved", 91.0, nil, 10.0, "model", "XXXX-XXXX-0124", true, 0, time.Now().Add(-time.Hour))

	mock.ExpectQuery("FROM decisions").
		WithArgs(50).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), 50)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(out))
	}
	if out[0].Outcome != domain.DecisionRejected || out[0].FaceNote != "no face detected" {
		t.Fatalf("unexpected first record %+v", out[0])
	}
	if out[1].FaceNote != "" {
		t.Fatalf("null face note must scan to empty string, got %q", out[1].FaceNote)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDecisionRepositoryListDefaultsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDecisionRepository(db)
	mock.ExpectQuery("FROM decisions").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "outcome", "face_score", "face_note", "risk_score", "risk_source", "aadhaar_masked", "pan_provided", "identifier_reuse", "decided_at"}))

	if _, err := repo.List(context.Background(), 0); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
