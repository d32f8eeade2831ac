package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/carbon-assessment/internal/domain"
	"github.com/xela07ax/carbon-assessment/internal/health"
)

// AssessmentService: то, что обработчикам нужно от сервисного слоя.
type AssessmentService interface {
	Create(ctx context.Context, in domain.AssessmentInput) (int64, error)
	List(ctx context.Context) ([]domain.Assessment, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Assessment, error)
	Summary(ctx context.Context) ([]domain.CategorySummary, error)
	Stats(ctx context.Context) (domain.Stats, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	ExportText(ctx context.Context) ([]byte, error)
	Health(ctx context.Context) health.Report
}

type AssessmentHandler struct {
	service AssessmentService
}

func NewAssessmentHandler(s AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: s}
}

type createResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// Create принимает анкету.
// POST /api/assessment
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.AssessmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{Status: "ok", ID: id})
}

// List возвращает все анкеты, новые первыми.
// GET /api/assessments
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ListByCategory фильтрует анкеты по категории.
// GET /api/assessments/{category}
func (h *AssessmentHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category: "+err.Error())
		return
	}

	rows, err := h.service.ListByCategory(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// categoryParam достает категорию из пути. Если в запросе есть RawPath, chi
// матчит по нему и отдает сегмент percent-encoded.
func categoryParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "category")
	if r.URL.RawPath == "" {
		return raw, nil
	}
	return url.PathUnescape(raw)
}
