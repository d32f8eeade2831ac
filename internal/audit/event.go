package audit

import (
	"encoding/json"
	"time"
)

// ActionCreated: единственное действие, которое сейчас пишет сервис.
const ActionCreated = "assessment.created"

// Event: строка audit_logs.
type Event struct {
	AssessmentID int64           `json:"assessment_id"`
	Action       string          `json:"action"`
	Details      json.RawMessage `json:"details"`
	CreatedAt    time.Time       `json:"created_at"`
}
