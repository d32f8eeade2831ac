package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xela07ax/carbon-assessment/internal/audit"
	"github.com/xela07ax/carbon-assessment/internal/domain"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// WriteBatch пишет пачку событий одним INSERT.
func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице audit_logs, которые заполняем сами
	const numFields = 4
	placeholders := make([]string, 0, len(events))
	vals := make([]any, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", p+1, p+2, p+3, p+4))

		var details any
		if len(e.Details) > 0 {
			details = string(e.Details)
		}
		vals = append(vals, e.AssessmentID, e.Action, details, e.CreatedAt)
	}

	query := "INSERT INTO audit_logs (assessment_id, action, details, created_at) VALUES " +
		strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: write audit batch: %w: %w", domain.ErrStore, err)
	}
	return nil
}
