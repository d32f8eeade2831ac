package grpcapi

import (
	"time"

	"github.com/xela07ax/carbon-assessment/internal/domain"
)

type ListAssessmentsRequest struct {
	// Category пустая - все анкеты
	Category string `json:"category,omitempty"`
}

type ListAssessmentsResponse struct {
	Assessments []domain.Assessment `json:"assessments"`
}

type GetSummaryRequest struct{}

type GetSummaryResponse struct {
	Summary []domain.CategorySummary `json:"summary"`
}

type GetStatsRequest struct{}

type GetStatsResponse struct {
	Stats domain.Stats `json:"stats"`
}

type CheckHealthRequest struct{}

type CheckHealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}
