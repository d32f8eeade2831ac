package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/carbon-assessment/internal/analytics"
	"github.com/xela07ax/carbon-assessment/internal/audit"
	"github.com/xela07ax/carbon-assessment/internal/domain"
	"github.com/xela07ax/carbon-assessment/internal/export"
	"github.com/xela07ax/carbon-assessment/internal/health"
	"github.com/xela07ax/carbon-assessment/internal/infra"
)

// AssessmentRepository описывает требования сервиса к хранилищу анкет
type AssessmentRepository interface {
	Create(ctx context.Context, in domain.AssessmentInput) (int64, error)
	ListAll(ctx context.Context) ([]domain.Assessment, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Assessment, error)
	Ping(ctx context.Context) error
}

type AssessmentService struct {
	repo    AssessmentRepository
	cache   ReportCache
	auditor audit.Auditor
	probe   *health.Probe
	metrics *infra.Metrics
	logger  *zap.Logger
}

// Option подключает необязательные зависимости.
type Option func(*AssessmentService)

func WithCache(c ReportCache) Option {
	return func(s *AssessmentService) { s.cache = c }
}

func WithAuditor(a audit.Auditor) Option {
	return func(s *AssessmentService) { s.auditor = a }
}

func WithMetrics(m *infra.Metrics) Option {
	return func(s *AssessmentService) { s.metrics = m }
}

func WithProbe(p *health.Probe) Option {
	return func(s *AssessmentService) { s.probe = p }
}

func NewAssessmentService(repo AssessmentRepository, logger *zap.Logger, opts ...Option) *AssessmentService {
	s := &AssessmentService{
		repo:    repo,
		cache:   NopCache{},
		auditor: audit.Nop{},
		metrics: infra.NewMetrics(nil),
		logger:  logger.Named("assessment-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.probe == nil {
		s.probe = health.NewProbe(repo)
	}
	return s
}

// Create сохраняет анкету, сбрасывает кэш отчетов и пишет событие аудита.
func (s *AssessmentService) Create(ctx context.Context, in domain.AssessmentInput) (int64, error) {
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, s.fail("create", in.Category.String(), err)
	}

	s.metrics.AssessmentsCreated.Inc()
	s.cache.Bump(ctx)
	s.auditor.Log(audit.Event{
		AssessmentID: id,
		Action:       audit.ActionCreated,
		Details:      auditDetails(in),
	})

	s.logger.Info("assessment stored",
		zap.Int64("id", id),
		zap.String("category", in.Category.String()))
	return id, nil
}

// List возвращает все анкеты, новые первыми.
func (s *AssessmentService) List(ctx context.Context) ([]domain.Assessment, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.fail("list", "", err)
	}
	return rows, nil
}

// ListByCategory возвращает анкеты одной категории.
func (s *AssessmentService) ListByCategory(ctx context.Context, category string) ([]domain.Assessment, error) {
	rows, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, s.fail("list_by_category", category, err)
	}
	return rows, nil
}

// Summary: сводка по категориям в порядке первого появления (новые первыми).
func (s *AssessmentService) Summary(ctx context.Context) ([]domain.CategorySummary, error) {
	gen, useCache := s.cache.Generation(ctx)
	var cached []domain.CategorySummary
	if useCache && s.cache.Get(ctx, infra.RedisKeySummary, gen, &cached) {
		return cached, nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.fail("summary", "", err)
	}
	summary := analytics.Summarize(rows)
	if useCache {
		s.cache.Set(ctx, infra.RedisKeySummary, gen, summary)
	}
	return summary, nil
}

// Stats: общая статистика и разбивка по категориям.
func (s *AssessmentService) Stats(ctx context.Context) (domain.Stats, error) {
	gen, useCache := s.cache.Generation(ctx)
	var cached domain.Stats
	if useCache && s.cache.Get(ctx, infra.RedisKeyStats, gen, &cached) {
		if cached.Categories == nil {
			cached.Categories = map[domain.Category]domain.CategoryStats{}
		}
		return cached, nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return domain.Stats{}, s.fail("stats", "", err)
	}
	stats := analytics.Compute(rows)
	if useCache {
		s.cache.Set(ctx, infra.RedisKeyStats, gen, stats)
	}
	return stats, nil
}

// ExportCSV строит CSV-выгрузку всех анкет.
func (s *AssessmentService) ExportCSV(ctx context.Context) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.fail("export_csv", "", err)
	}
	s.metrics.ExportedRows.WithLabelValues("csv").Add(float64(len(rows)))
	return export.CSV(rows), nil
}

// ExportText строит текстовый отчет всех анкет.
func (s *AssessmentService) ExportText(ctx context.Context) ([]byte, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.fail("export_txt", "", err)
	}
	s.metrics.ExportedRows.WithLabelValues("txt").Add(float64(len(rows)))
	return export.Text(rows), nil
}

// Health проверяет доступность базы.
func (s *AssessmentService) Health(ctx context.Context) health.Report {
	report := s.probe.Check(ctx)
	if !report.OK() {
		s.logger.Warn("database health check failed", zap.String("reason", report.Reason))
	}
	return report
}

func (s *AssessmentService) fail(op, category string, err error) error {
	s.metrics.StoreErrors.WithLabelValues(op).Inc()
	s.logger.Error("store operation failed",
		zap.String("op", op),
		zap.String("category", category),
		zap.Error(err))
	return fmt.Errorf("service: %s: %w", op, err)
}

func auditDetails(in domain.AssessmentInput) json.RawMessage {
	details := struct {
		Category domain.Category `json:"category"`
		AvgScore *domain.Score   `json:"avg_score"`
	}{in.Category, in.AvgScore}

	data, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return data
}
