package httpadapter

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

// exportDecisions streams the recent decision audit trail as a spreadsheet
// for the compliance team.
func (rt *Router) exportDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.decisions == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision store not configured"})
		return
	}

	records, err := rt.decisions.List(r.Context(), rt.opts.ExportLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := decisionsWorkbook(records)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "build export"})
		return
	}
	defer book.Close()

	filename := fmt.Sprintf("decisions-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := book.Write(w); err != nil {
		slog.Error("write decisions export", "error", err)
	}
}

func decisionsWorkbook(records []domain.DecisionRecord) (*excelize.File, error) {
	book := excelize.NewFile()
	const sheet = "Decisions"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := []any{"Decision ID", "Session ID", "Outcome", "Face Score", "Face Note", "Risk Score", "Risk Source", "Aadhaar (masked)", "PAN Provided", "Identifier Reuse", "Decided At"}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			rec.ID,
			rec.SessionID,
			string(rec.Outcome),
			rec.FaceScore,
			rec.FaceNote,
			rec.RiskScore,
			string(rec.RiskSource),
			rec.AadhaarMasked,
			rec.PANProvided,
			rec.IdentifierReuse,
			rec.DecidedAt.UTC().Format(time.RFC3339),
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return book, nil
}
