package handler

import (
	"net/http"
	"time"
)

type healthOK struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

type healthFailed struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error"`
}

// Health: GET /api/health
func (h *AssessmentHandler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.service.Health(r.Context())
	if !report.OK() {
		writeJSON(w, http.StatusInternalServerError, healthFailed{
			Status:   report.Status,
			Database: "disconnected",
			Error:    report.Reason,
		})
		return
	}
	writeJSON(w, http.StatusOK, healthOK{
		Status:    report.Status,
		Database:  "connected",
		Timestamp: report.Timestamp.UTC(),
	})
}
