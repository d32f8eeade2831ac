package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Statement: один именованный шаг схемы. Все шаги идемпотентны.
type Statement struct {
	Name string
	SQL  string
}

// Schema: упорядоченный набор шагов. Ничего не удаляет: повторный запуск безопасен.
var Schema = []Statement{
	{
		Name: "create table assessments",
		SQL: `CREATE TABLE IF NOT EXISTS assessments (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(20),
    category VARCHAR(50),
    answers JSONB,
    avg_score DECIMAL(3, 2),
    comment TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	},
	{
		// таблицы, созданные старым сервером, не имели updated_at
		Name: "add column assessments.updated_at",
		SQL:  `ALTER TABLE assessments ADD COLUMN IF NOT EXISTS updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP`,
	},
	{
		Name: "create index idx_assessments_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assessments_category ON assessments(category)`,
	},
	{
		Name: "create index idx_assessments_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at)`,
	},
	{
		Name: "create index idx_assessments_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assessments_email ON assessments(email)`,
	},
	{
		Name: "create table audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
    id SERIAL PRIMARY KEY,
    assessment_id INTEGER REFERENCES assessments(id) ON DELETE CASCADE,
    action VARCHAR(100),
    details JSONB,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	},
	{
		Name: "create function update_assessments_updated_at",
		SQL: `CREATE OR REPLACE FUNCTION update_assessments_updated_at()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = CURRENT_TIMESTAMP;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	},
	{
		Name: "create trigger update_assessments_timestamp",
		SQL: `DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_trigger
        WHERE tgname = 'update_assessments_timestamp'
          AND tgrelid = 'assessments'::regclass
    ) THEN
        CREATE TRIGGER update_assessments_timestamp
        BEFORE UPDATE ON assessments
        FOR EACH ROW
        EXECUTE FUNCTION update_assessments_updated_at();
    END IF;
END
$$`,
	},
}

// Execer: то, что нужно схеме от *sql.DB (или *sql.Conn / *sql.Tx).
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureSchema применяет схему строго: первая ошибка прерывает запуск.
// Вызывается сервером перед тем, как начать слушать порт.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, st := range Schema {
		if _, err := db.ExecContext(ctx, st.SQL); err != nil {
			return fmt.Errorf("postgres: schema %q: %w", st.Name, err)
		}
	}
	return nil
}

// StatementResult: итог одного шага миграции.
type StatementResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// MigrationReport: итог Migrate по всем шагам.
type MigrationReport struct {
	Results []StatementResult
	Elapsed time.Duration
}

// Failed возвращает шаги, завершившиеся ошибкой.
func (r *MigrationReport) Failed() []StatementResult {
	var failed []StatementResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Migrate выполняет все шаги, не останавливаясь на ошибках, и логирует каждый.
func Migrate(ctx context.Context, db Execer, logger *zap.Logger) *MigrationReport {
	started := time.Now()
	report := &MigrationReport{Results: make([]StatementResult, 0, len(Schema))}

	for _, st := range Schema {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, st.SQL)
		res := StatementResult{Name: st.Name, Err: err, Duration: time.Since(stepStart)}
		report.Results = append(report.Results, res)

		if err != nil {
			logger.Error("migration step failed", zap.String("step", st.Name), zap.Error(err))
			continue
		}
		logger.Info("migration step applied", zap.String("step", st.Name), zap.Duration("duration", res.Duration))
	}

	report.Elapsed = time.Since(started)
	return report
}
