// Package httpadapter exposes the verification pipeline over HTTP: session
// intake, document and face submission, session inspection, and the admin
// decisions surface.
package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/observability/metrics"
)

type Options struct {
	Service        string
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	ExportLimit    int
}

type Router struct {
	pipeline  ports.VerificationPipeline
	decisions ports.DecisionStore
	metrics   *metrics.HTTPServerMetrics
	opts      Options
}

func NewRouter(
	pipeline ports.VerificationPipeline,
	decisions ports.DecisionStore,
	m *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.ExportLimit <= 0 {
		opts.ExportLimit = 1000
	}
	return &Router{
		pipeline:  pipeline,
		decisions: decisions,
		metrics:   m,
		opts:      opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sessions", rt.createSession)
	mux.HandleFunc("/v1/sessions/", rt.sessionSubresource)
	mux.HandleFunc("/v1/admin/decisions", rt.listDecisions)
	mux.HandleFunc("/v1/admin/decisions/export", rt.exportDecisions)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.Service, handler)
	}
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, time.Second)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var claim domain.IdentityClaim
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&claim); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	session, err := rt.pipeline.StartSession(r.Context(), claim)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSessionStarted(rt.opts.Service)
	}
	writeJSON(w, http.StatusCreated, sessionView(session))
}

func (rt *Router) sessionSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	switch {
	case strings.HasSuffix(rest, "/documents"):
		rt.submitDocuments(w, r, strings.TrimSuffix(rest, "/documents"))
	case strings.HasSuffix(rest, "/face"):
		rt.submitFace(w, r, strings.TrimSuffix(rest, "/face"))
	default:
		rt.sessionByID(w, r, rest)
	}
}

func (rt *Router) sessionByID(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		session, err := rt.pipeline.GetSession(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionView(session))
	case http.MethodDelete:
		if err := rt.pipeline.RestartSession(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) submitDocuments(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	aadhaar, err := formUpload(r, "aadhaar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if aadhaar == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'aadhaar' is required"})
		return
	}
	pan, err := formUpload(r, "pan")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	session, err := rt.pipeline.SubmitDocuments(r.Context(), id, aadhaar, pan)
	rt.recordStage("documents", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		if doc, ok := session.Document(domain.DocumentAadhaar); ok {
			rt.metrics.RecordBlurScore(rt.opts.Service, doc.BlurScore)
		}
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (rt *Router) submitFace(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	var photo *ports.DocumentUpload
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		photo, err = webcamFrame(r)
	} else {
		photo, err = formUpload(r, "photo")
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if photo == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'photo' or json field 'image_data' is required"})
		return
	}

	start := time.Now()
	session, err := rt.pipeline.SubmitFace(r.Context(), id, *photo)
	rt.recordStage("face", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil && session.Risk != nil && session.FaceMatch != nil {
		rt.metrics.RecordDecision(
			rt.opts.Service,
			string(session.Decision),
			string(session.Risk.Source),
			session.Risk.Score,
			session.FaceMatch.Score,
		)
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (rt *Router) listDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.decisions == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision store not configured"})
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := rt.decisions.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": records})
}

func (rt *Router) recordStage(stage string, start time.Time, err error) {
	if rt.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case domain.IsKind(err, domain.ErrInvalidInput):
		status = "invalid"
		rt.metrics.RecordValidationFailure(rt.opts.Service, stage)
	default:
		status = "error"
	}
	rt.metrics.RecordStage(rt.opts.Service, stage, status, time.Since(start))
}

// formUpload reads one multipart file field. A missing field is (nil, nil) so
// optional uploads stay optional.
func formUpload(r *http.Request, field string) (*ports.DocumentUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &ports.DocumentUpload{Filename: header.Filename, Data: data}, nil
}

// webcamFrame reads a browser-captured frame posted as JSON. The value may be
// a bare base64 string or a data URL ("data:image/jpeg;base64,...").
func webcamFrame(r *http.Request) (*ports.DocumentUpload, error) {
	var payload struct {
		ImageData string `json:"image_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, errors.New("invalid json")
	}
	if payload.ImageData == "" {
		return nil, nil
	}
	encoded := payload.ImageData
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 {
		encoded = encoded[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("image_data is not valid base64")
	}
	return &ports.DocumentUpload{Filename: "webcam.jpg", Data: data}, nil
}

type documentView struct {
	Kind      domain.DocumentKind `json:"kind"`
	Filename  string              `json:"filename"`
	BlurScore float64             `json:"blur_score"`
}

// sessionResponse is the wire view of a session. Extracted identifiers and
// storage keys never leave the service.
type sessionResponse struct {
	ID               string                  `json:"id"`
	State            domain.SessionState     `json:"state"`
	Decision         domain.Decision         `json:"decision,omitempty"`
	ValidationIssues []string                `json:"validation_issues,omitempty"`
	Documents        []documentView          `json:"documents,omitempty"`
	FaceMatch        *domain.FaceMatchResult `json:"face_match,omitempty"`
	Risk             *domain.RiskAssessment  `json:"risk,omitempty"`
	IdentifierReuse  int                     `json:"identifier_reuse,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func sessionView(session *domain.VerificationSession) sessionResponse {
	resp := sessionResponse{
		ID:               session.ID,
		State:            session.State,
		Decision:         session.Decision,
		ValidationIssues: session.ValidationIssues,
		FaceMatch:        session.FaceMatch,
		Risk:             session.Risk,
		IdentifierReuse:  session.IdentifierReuse,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
	for _, kind := range []domain.DocumentKind{domain.DocumentAadhaar, domain.DocumentPAN} {
		if doc, ok := session.Document(kind); ok {
			resp.Documents = append(resp.Documents, documentView{
				Kind:      doc.Kind,
				Filename:  doc.Filename,
				BlurScore: doc.BlurScore,
			})
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
