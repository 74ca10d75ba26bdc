package domain

import "time"

type SessionState string

const (
	StateClaimPending       SessionState = "claim_pending"
	StateDocumentsPending   SessionState = "documents_pending"
	StateDocumentsValidated SessionState = "documents_validated"
	StateFacePending        SessionState = "face_pending"
	StateDecided            SessionState = "decided"
	StateAborted            SessionState = "aborted"
)

type DocumentKind string

const (
	DocumentAadhaar DocumentKind = "aadhaar"
	DocumentPAN     DocumentKind = "pan"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// IdentityClaim holds the facts the user declared at intake. It is written
// once when the session is created and never mutated afterwards.
type IdentityClaim struct {
	FullName     string `json:"full_name"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD
	AadhaarLast4 string `json:"aadhaar_last4"`
	PANNumber    string `json:"pan_number,omitempty"` // normalized uppercase, optional
}

// DocumentAsset describes one uploaded identity document after decoding and
// normalization. The raster itself lives in object storage under StorageKey;
// the session only carries the reference and the derived quality signal.
type DocumentAsset struct {
	Kind       DocumentKind `json:"kind"`
	Filename   string       `json:"filename"`
	StorageKey string       `json:"storage_key,omitempty"`
	BlurScore  float64      `json:"blur_score"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
}

// ExtractionResult is the structured output of text extraction for one
// document kind. An empty Identifier means nothing usable was read, which is
// a normal outcome rather than an error.
type ExtractionResult struct {
	Kind       DocumentKind `json:"kind"`
	Identifier string       `json:"identifier,omitempty"`
	FullText   string       `json:"full_text,omitempty"`
	Valid      bool         `json:"valid"`
}

// FaceMatchResult is the biometric engine's verdict. A populated Note with
// Matched=false is a soft failure (for example no face detected); hard
// engine outages never produce a FaceMatchResult at all.
type FaceMatchResult struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"` // similarity in [0,100]
	Note    string  `json:"note,omitempty"`
}

type RiskSource string

const (
	RiskSourceModel     RiskSource = "model"
	RiskSourceHeuristic RiskSource = "heuristic"
)

// RiskAssessment is advisory: it accompanies the decision for audit but does
// not gate it.
type RiskAssessment struct {
	Score  float64    `json:"score"` // 0 safe .. 100 high risk
	Source RiskSource `json:"source"`
}

// VerificationSession aggregates everything one verification attempt has
// produced so far. Exactly one flow of control mutates a session at a time;
// the use case layer serializes access per session id.
type VerificationSession struct {
	ID    string       `json:"id"`
	State SessionState `json:"state"`

	Claim       IdentityClaim                      `json:"claim"`
	Documents   map[DocumentKind]DocumentAsset     `json:"documents,omitempty"`
	Extractions map[DocumentKind]ExtractionResult  `json:"extractions,omitempty"`
	FaceMatch   *FaceMatchResult                   `json:"face_match,omitempty"`
	Risk        *RiskAssessment                    `json:"risk,omitempty"`
	Decision    Decision                           `json:"decision,omitempty"`

	// ValidationIssues holds the accumulated reasons from the last failed
	// document validation so the user can fix everything in one pass.
	ValidationIssues []string `json:"validation_issues,omitempty"`

	// IdentifierReuse counts prior sessions that presented the same primary
	// identifier, when the fraud graph is enabled. Advisory only.
	IdentifierReuse int `json:"identifier_reuse,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Extraction returns the extraction result for a kind, if recorded.
func (s *VerificationSession) Extraction(kind DocumentKind) (ExtractionResult, bool) {
	res, ok := s.Extractions[kind]
	return res, ok
}

// Document returns the document asset for a kind, if recorded.
func (s *VerificationSession) Document(kind DocumentKind) (DocumentAsset, bool) {
	doc, ok := s.Documents[kind]
	return doc, ok
}

// DecisionRecord is the flattened audit view of a decided session, published
// at decision time and persisted by the worker.
type DecisionRecord struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"session_id"`
	Outcome         Decision   `json:"outcome"`
	FaceScore       float64    `json:"face_score"`
	FaceNote        string     `json:"face_note,omitempty"`
	RiskScore       float64    `json:"risk_score"`
	RiskSource      RiskSource `json:"risk_source"`
	AadhaarMasked   string     `json:"aadhaar_masked"`
	PANProvided     bool       `json:"pan_provided"`
	IdentifierReuse int        `json:"identifier_reuse"`
	DecidedAt       time.Time  `json:"decided_at"`
}
