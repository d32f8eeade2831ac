package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xela07ax/carbon-assessment/internal/domain"
)

const assessmentColumns = `id, name, email, phone, category, answers, avg_score::text, comment, created_at, updated_at`

type AssessmentRepo struct {
	db *sql.DB
}

// NewAssessmentRepo принимает уже открытый пул: время жизни пула принадлежит main.
func NewAssessmentRepo(db *sql.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

// Create сохраняет анкету и возвращает назначенный базой id. Дубликаты разрешены.
func (r *AssessmentRepo) Create(ctx context.Context, in domain.AssessmentInput) (int64, error) {
	query := `
		INSERT INTO assessments (name, email, phone, category, answers, avg_score, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var answers any
	if len(in.Answers) > 0 {
		answers = string(in.Answers)
	}
	var score any
	if in.AvgScore != nil {
		score = in.AvgScore.Float64()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		in.Name, in.Email, in.Phone, in.Category, answers, score, in.Comment,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create assessment: %w: %w", domain.ErrStore, err)
	}
	return id, nil
}

// ListAll возвращает все анкеты, новые первыми.
func (r *AssessmentRepo) ListAll(ctx context.Context) ([]domain.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "list assessments", query)
}

// ListByCategory фильтрует по точному совпадению категории.
// Отсутствие совпадений - пустой срез, а не ошибка.
func (r *AssessmentRepo) ListByCategory(ctx context.Context, category string) ([]domain.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE category = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "list assessments by category", query, category)
}

// Ping делает тривиальный запрос к базе, как health-check старого сервера.
func (r *AssessmentRepo) Ping(ctx context.Context) error {
	var now sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT NOW()`).Scan(&now); err != nil {
		return fmt.Errorf("postgres: ping: %w: %w", domain.ErrStore, err)
	}
	return nil
}

func (r *AssessmentRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.Assessment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w: %w", op, domain.ErrStore, err)
	}
	defer rows.Close()

	out := make([]domain.Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s: %w: %w", op, domain.ErrStore, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s: %w: %w", op, domain.ErrStore, err)
	}
	return out, nil
}

func scanAssessment(rows *sql.Rows) (domain.Assessment, error) {
	var (
		a         domain.Assessment
		phone     sql.NullString
		answers   []byte
		avgScore  sql.NullString
		comment   sql.NullString
		updatedAt sql.NullTime
	)
	err := rows.Scan(&a.ID, &a.Name, &a.Email, &phone, &a.Category, &answers, &avgScore, &comment, &a.CreatedAt, &updatedAt)
	if err != nil {
		return a, err
	}

	if phone.Valid {
		a.Phone = &phone.String
	}
	if comment.Valid {
		a.Comment = &comment.String
	}
	if len(answers) > 0 {
		a.Answers = answers
	}
	if avgScore.Valid {
		s, err := domain.ParseScore(avgScore.String)
		if err != nil {
			return a, fmt.Errorf("avg_score %q: %w", avgScore.String, err)
		}
		a.AvgScore = &s
	}
	a.UpdatedAt = a.CreatedAt
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	}
	return a, nil
}
