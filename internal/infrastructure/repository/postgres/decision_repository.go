// Package postgres persists the decision audit trail. Sessions themselves are
// transient and live in the session store; only rendered decisions reach the
// database, written by the audit worker.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

type DecisionRepository struct {
	db *sql.DB
}

func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DecisionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	outcome TEXT NOT NULL,
	face_score DOUBLE PRECISION NOT NULL,
	face_note TEXT,
	risk_score DOUBLE PRECISION NOT NULL,
	risk_source TEXT NOT NULL,
	aadhaar_masked TEXT NOT NULL,
	pan_provided BOOLEAN NOT NULL DEFAULT FALSE,
	identifier_reuse INTEGER NOT NULL DEFAULT 0,
	decided_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_session_id ON decisions(session_id);
CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DecisionRepository) Create(ctx context.Context, rec *domain.DecisionRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO decisions (id, session_id, outcome, face_score, face_note, risk_score, risk_source, aadhaar_masked, pan_provided, identifier_reuse, decided_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, rec.ID, rec.SessionID, string(rec.Outcome), rec.FaceScore, rec.FaceNote, rec.RiskScore, string(rec.RiskSource), rec.AadhaarMasked, rec.PANProvided, rec.IdentifierReuse, rec.DecidedAt)
	if err != nil {
		return fmt.Errorf("create decision: %w", err)
	}
	return nil
}

func (r *DecisionRepository) List(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, outcome, face_score, face_note, risk_score, risk_source, aadhaar_masked, pan_provided, identifier_reuse, decided_at
FROM decisions
ORDER BY decided_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DecisionRecord, 0)
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

type decisionScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row decisionScanner) (domain.DecisionRecord, error) {
	var rec domain.DecisionRecord
	var outcome, riskSource string
	var faceNote sql.NullString
	err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&outcome,
		&rec.FaceScore,
		&faceNote,
		&rec.RiskScore,
		&riskSource,
		&rec.AadhaarMasked,
		&rec.PANProvided,
		&rec.IdentifierReuse,
		&rec.DecidedAt,
	)
	if err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("scan decision: %w", err)
	}
	rec.Outcome = domain.Decision(outcome)
	rec.RiskSource = domain.RiskSource(riskSource)
	rec.FaceNote = faceNote.String
	return rec, nil
}
