package handler

import (
	"context"
	"net/http"
)

const (
	csvFilename  = "assessment_results.csv"
	textFilename = "assessment_results.txt"
)

// ExportCSV: GET /api/export/csv
func (h *AssessmentHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.attachment(w, r, h.service.ExportCSV, "text/csv; charset=utf-8", csvFilename)
}

// ExportText: GET /api/export/txt
func (h *AssessmentHandler) ExportText(w http.ResponseWriter, r *http.Request) {
	h.attachment(w, r, h.service.ExportText, "text/plain; charset=utf-8", textFilename)
}

func (h *AssessmentHandler) attachment(
	w http.ResponseWriter,
	r *http.Request,
	build func(ctx context.Context) ([]byte, error),
	contentType string,
	filename string,
) {
	body, err := build(r.Context())
	if err != nil {
		// выгрузку открывают браузером, поэтому ответ - простой текст
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
