package httpadapter

import (
	"net/http"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

// writeError maps a pipeline error onto the HTTP surface. Accumulated
// validation problems carry their reasons so the user can fix everything in
// one resubmission.
func writeError(w http.ResponseWriter, err error) {
	if verrs, ok := domain.AsValidationErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "validation failed",
			"reasons": []string(verrs),
		})
		return
	}

	status := mapErrorToHTTPStatus(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrStageOrder):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrSessionCorrupt):
		return http.StatusGone
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEngineFailure):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrDecode), domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
