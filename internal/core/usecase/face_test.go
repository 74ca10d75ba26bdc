package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
)

func seedFacePending(t *testing.T, f *fixture) *domain.VerificationSession {
	t.Helper()
	session := seedSession(t, f)
	f.ocr.text = "2345 6789 0124"
	out, err := f.uc.SubmitDocuments(context.Background(), session.ID, upload("aadhaar.jpg"), nil)
	if err != nil {
		t.Fatalf("seed documents: %v", err)
	}
	return out
}

func livePhoto() ports.DocumentUpload {
	return ports.DocumentUpload{Filename: "selfie.jpg", Data: []byte("payload")}
}

func TestSubmitFaceApproves(t *testing.T) {
	f := newFixture()
	session := seedFacePending(t, f)
	f.faces.result = domain.FaceMatchResult{Matched: true, Score: 92}

	out, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != domain.StateDecided {
		t.Fatalf("expected decided, got %s", out.State)
	}
	if out.Decision != domain.DecisionApproved {
		t.Fatalf("expected approved, got %s", out.Decision)
	}
	if out.FaceMatch == nil || out.FaceMatch.Score != 92 {
		t.Fatalf("expected recorded face result, got %+v", out.FaceMatch)
	}
	// Strong face and identifier signals with a valid checksum and a sharp
	// image land the heuristic at 10.
	if out.Risk == nil || out.Risk.Score != 10 || out.Risk.Source != domain.RiskSourceHeuristic {
		t.Fatalf("expected heuristic risk 10, got %+v", out.Risk)
	}

	if len(f.publisher.records) != 1 {
		t.Fatalf("expected one published decision, got %d", len(f.publisher.records))
	}
	rec := f.publisher.records[0]
	if rec.Outcome != domain.DecisionApproved {
		t.Fatalf("expected approved outcome published, got %s", rec.Outcome)
	}
	if rec.AadhaarMasked != "XXXX-XXXX-0124" {
		t.Fatalf("published record must mask the identifier, got %q", rec.AadhaarMasked)
	}
	if len(f.storage.objects) != 0 {
		t.Fatal("decided session must not retain the document raster")
	}
}

func TestSubmitFaceRejectsSoftFailure(t *testing.T) {
	f := newFixture()
	session := seedFacePending(t, f)
	f.faces.result = domain.FaceMatchResult{Matched: false, Score: 0, Note: "no face detected in live photo"}

	out, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if err != nil {
		t.Fatalf("soft failure must still decide, got error %v", err)
	}
	if out.Decision != domain.DecisionRejected {
		t.Fatalf("expected rejected, got %s", out.Decision)
	}
	if out.State != domain.StateDecided {
		t.Fatalf("expected decided, got %s", out.State)
	}
	if out.FaceMatch.Note != "no face detected in live photo" {
		t.Fatalf("expected engine note retained, got %q", out.FaceMatch.Note)
	}
}

func TestSubmitFaceEngineOutageLeavesSessionResubmittable(t *testing.T) {
	f := newFixture()
	session := seedFacePending(t, f)
	f.faces.err = errors.New("connection refused")

	_, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if !domain.IsKind(err, domain.ErrEngineFailure) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	stored := f.sessions.stored(session.ID)
	if stored.State != domain.StateFacePending {
		t.Fatalf("expected face_pending retained, got %s", stored.State)
	}
	asset, _ := stored.Document(domain.DocumentAadhaar)
	if !f.storage.has(asset.StorageKey) {
		t.Fatal("document raster must survive an engine outage for retry")
	}
}

func TestSubmitFaceCorruptSessionAborts(t *testing.T) {
	f := newFixture()
	session := seedFacePending(t, f)
	f.storage.openErr = errors.New("disk gone")

	_, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if !domain.IsKind(err, domain.ErrSessionCorrupt) {
		t.Fatalf("expected corrupt session, got %v", err)
	}
	stored := f.sessions.stored(session.ID)
	if stored.State != domain.StateAborted {
		t.Fatalf("expected aborted, got %s", stored.State)
	}
}

func TestSubmitFaceRecordsIdentifierReuse(t *testing.T) {
	f := newFixture()
	graph := &fakeGraph{prior: 2}
	f.withGraph(graph)
	session := seedFacePending(t, f)
	f.faces.result = domain.FaceMatchResult{Matched: true, Score: 95}

	out, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IdentifierReuse != 2 {
		t.Fatalf("expected prior reuse count 2, got %d", out.IdentifierReuse)
	}

	sum := sha256.Sum256([]byte("234567890124"))
	if len(graph.hashes) != 1 || graph.hashes[0] != hex.EncodeToString(sum[:]) {
		t.Fatalf("expected hashed identifier recorded, got %v", graph.hashes)
	}
}

func TestSubmitFaceGraphOutageIsAdvisory(t *testing.T) {
	f := newFixture()
	f.withGraph(&fakeGraph{err: errors.New("neo4j down")})
	session := seedFacePending(t, f)
	f.faces.result = domain.FaceMatchResult{Matched: true, Score: 95}

	out, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if err != nil {
		t.Fatalf("graph outage must not block the decision, got %v", err)
	}
	if out.Decision != domain.DecisionApproved {
		t.Fatalf("expected approved, got %s", out.Decision)
	}
	if out.IdentifierReuse != 0 {
		t.Fatalf("expected no reuse recorded, got %d", out.IdentifierReuse)
	}
}

func TestSubmitFaceRejectsOutOfOrderCall(t *testing.T) {
	f := newFixture()
	session := seedSession(t, f)

	_, err := f.uc.SubmitFace(context.Background(), session.ID, livePhoto())
	if !domain.IsKind(err, domain.ErrStageOrder) {
		t.Fatalf("expected stage order violation, got %v", err)
	}
}

func TestRestartSessionDropsEverything(t *testing.T) {
	f := newFixture()
	session := seedFacePending(t, f)

	if err := f.uc.RestartSession(context.Background(), session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.uc.GetSession(context.Background(), session.ID); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	if len(f.storage.objects) != 0 {
		t.Fatal("restart must remove stored assets")
	}
}
