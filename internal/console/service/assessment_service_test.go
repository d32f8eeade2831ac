package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/carbon-assessment/internal/audit"
	"github.com/xela07ax/carbon-assessment/internal/domain"
	"github.com/xela07ax/carbon-assessment/internal/infra"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, in domain.AssessmentInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) ListAll(ctx context.Context) ([]domain.Assessment, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.Assessment)
	return rows, args.Error(1)
}

func (m *mockRepo) ListByCategory(ctx context.Context, category string) ([]domain.Assessment, error) {
	args := m.Called(ctx, category)
	rows, _ := args.Get(0).([]domain.Assessment)
	return rows, args.Error(1)
}

func (m *mockRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recordingAuditor struct {
	events []audit.Event
}

func (r *recordingAuditor) Log(e audit.Event) { r.events = append(r.events, e) }

func score(t *testing.T, s string) *domain.Score {
	t.Helper()
	v, err := domain.ParseScore(s)
	require.NoError(t, err)
	return &v
}

func energyRows(t *testing.T) []domain.Assessment {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return []domain.Assessment{
		{ID: 2, Name: "B", Email: "b@x", Category: domain.NewCategory("energy"), AvgScore: score(t, "2.00"), CreatedAt: now},
		{ID: 1, Name: "A", Email: "a@x", Category: domain.NewCategory("energy"), AvgScore: score(t, "4.00"), CreatedAt: now},
	}
}

func newRedisCache(t *testing.T, metrics *infra.Metrics) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := infra.CacheConfig{TTL: time.Minute, CBMaxRequests: 1, CBTimeout: time.Minute, CBMaxFailures: 2}
	return NewRedisCache(rdb, cfg, metrics, zap.NewNop()), mr
}

func TestAssessmentService_Create(t *testing.T) {
	repo := &mockRepo{}
	auditor := &recordingAuditor{}
	metrics := infra.NewMetrics(nil)
	in := domain.AssessmentInput{Name: "A", Email: "a@x", Category: domain.NewCategory("energy"), AvgScore: score(t, "3.67")}
	repo.On("Create", mock.Anything, in).Return(int64(7), nil)

	svc := NewAssessmentService(repo, zap.NewNop(), WithAuditor(auditor), WithMetrics(metrics))
	id, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsCreated))
	require.Len(t, auditor.events, 1)
	assert.Equal(t, int64(7), auditor.events[0].AssessmentID)
	assert.Equal(t, audit.ActionCreated, auditor.events[0].Action)
	assert.JSONEq(t, `{"category":"energy","avg_score":"3.67"}`, string(auditor.events[0].Details))
	repo.AssertExpectations(t)
}

func TestAssessmentService_CreateStoreError(t *testing.T) {
	repo := &mockRepo{}
	auditor := &recordingAuditor{}
	metrics := infra.NewMetrics(nil)
	storeErr := fmt.Errorf("postgres: create assessment: %w: %w", domain.ErrStore, errors.New("boom"))
	repo.On("Create", mock.Anything, mock.Anything).Return(int64(0), storeErr)

	svc := NewAssessmentService(repo, zap.NewNop(), WithAuditor(auditor), WithMetrics(metrics))
	_, err := svc.Create(context.Background(), domain.AssessmentInput{})

	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "service: create")
	assert.Empty(t, auditor.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreErrors.WithLabelValues("create")))
}

func TestAssessmentService_Stats(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListAll", mock.Anything).Return(energyRows(t), nil)

	stats, err := NewAssessmentService(repo, zap.NewNop()).Stats(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalCount":2,"avgScore":"3.00","categories":{"energy":{"count":2,"avgScore":"3.00"}}}`, string(data))
}

func TestAssessmentService_SummaryEmpty(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListAll", mock.Anything).Return([]domain.Assessment{}, nil)

	summary, err := NewAssessmentService(repo, zap.NewNop()).Summary(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}

func TestAssessmentService_ListByCategory(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListByCategory", mock.Anything, "nonexistent").Return([]domain.Assessment{}, nil)

	rows, err := NewAssessmentService(repo, zap.NewNop()).ListByCategory(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssessmentService_Exports(t *testing.T) {
	repo := &mockRepo{}
	metrics := infra.NewMetrics(nil)
	repo.On("ListAll", mock.Anything).Return(energyRows(t), nil)

	svc := NewAssessmentService(repo, zap.NewNop(), WithMetrics(metrics))

	csv, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.True(t, len(csv) > 0)

	txt, err := svc.ExportText(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(txt), "4.00/5.00")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ExportedRows.WithLabelValues("csv")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ExportedRows.WithLabelValues("txt")))
}

func TestAssessmentService_ExportError(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListAll", mock.Anything).Return(nil, domain.ErrStore)

	_, err := NewAssessmentService(repo, zap.NewNop()).ExportCSV(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestAssessmentService_Health(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	repo.On("Ping", mock.Anything).Return(nil).Once()

	svc := NewAssessmentService(repo, zap.NewNop())

	bad := svc.Health(context.Background())
	assert.False(t, bad.OK())
	assert.Equal(t, "connection refused", bad.Reason)

	assert.True(t, svc.Health(context.Background()).OK())
}

func TestAssessmentService_StatsCachedUntilCreate(t *testing.T) {
	repo := &mockRepo{}
	metrics := infra.NewMetrics(nil)
	cache, mr := newRedisCache(t, metrics)
	rows := energyRows(t)

	repo.On("ListAll", mock.Anything).Return(rows, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(int64(3), nil)
	repo.On("ListAll", mock.Anything).Return(rows[:1], nil).Once()

	svc := NewAssessmentService(repo, zap.NewNop(), WithCache(cache), WithMetrics(metrics))
	ctx := context.Background()

	first, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(infra.ReportKey(infra.RedisKeyStats, 0)))

	// второй вызов идет из кэша: ListAll больше не вызывается
	second, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheResults.WithLabelValues(infra.RedisKeyStats, "hit")))

	_, err = svc.Create(ctx, domain.AssessmentInput{Name: "C"})
	require.NoError(t, err)
	gen, err := mr.Get(infra.RedisKeyReportGen)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	third, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, third.TotalCount)
	assert.True(t, mr.Exists(infra.ReportKey(infra.RedisKeyStats, 1)))
	repo.AssertExpectations(t)
}

// Отчет, посчитанный до записи и сохраненный после нее, не должен
// перекрывать свежие данные.
func TestAssessmentService_StatsLateSetAfterCreate(t *testing.T) {
	repo := &mockRepo{}
	cache, _ := newRedisCache(t, nil)
	rows := energyRows(t)

	started := make(chan struct{})
	release := make(chan struct{})
	repo.On("ListAll", mock.Anything).Return(rows[1:], nil).Once().Run(func(mock.Arguments) {
		close(started)
		<-release
	})
	repo.On("Create", mock.Anything, mock.Anything).Return(int64(2), nil)
	repo.On("ListAll", mock.Anything).Return(rows, nil).Once()

	svc := NewAssessmentService(repo, zap.NewNop(), WithCache(cache))
	ctx := context.Background()

	type result struct {
		stats domain.Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := svc.Stats(ctx)
		done <- result{st, err}
	}()

	<-started
	_, err := svc.Create(ctx, domain.AssessmentInput{Name: "B"})
	require.NoError(t, err)
	close(release)

	stale := <-done
	require.NoError(t, stale.err)
	assert.Equal(t, 1, stale.stats.TotalCount)

	fresh, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalCount)

	cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)
	repo.AssertNumberOfCalls(t, "ListAll", 2)
}

func TestAssessmentService_FailedBumpBypassesCache(t *testing.T) {
	repo := &mockRepo{}
	cache, mr := newRedisCache(t, nil)
	rows := energyRows(t)

	repo.On("ListAll", mock.Anything).Return(rows[1:], nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(int64(2), nil)
	repo.On("ListAll", mock.Anything).Return(rows, nil).Twice()

	svc := NewAssessmentService(repo, zap.NewNop(), WithCache(cache))
	ctx := context.Background()

	_, err := svc.Stats(ctx)
	require.NoError(t, err)

	mr.SetError("READONLY You can't write against a read only replica.")
	_, err = svc.Create(ctx, domain.AssessmentInput{Name: "B"})
	require.NoError(t, err)
	mr.SetError("")

	// старая запись поколения 0 еще жива, но читать ее нельзя
	for i := 0; i < 2; i++ {
		st, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, st.TotalCount)
	}
	repo.AssertExpectations(t)
}

func TestRedisCache_BypassExpires(t *testing.T) {
	cache, mr := newRedisCache(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	mr.SetError("LOADING")
	cache.Bump(ctx)
	mr.SetError("")

	_, ok := cache.Generation(ctx)
	assert.False(t, ok)

	now = now.Add(time.Minute + time.Second)
	gen, ok := cache.Generation(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(0), gen)

	cache.Bump(ctx)
	gen, ok = cache.Generation(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(1), gen)
}

func TestAssessmentService_SummaryCacheKeepsNullCategory(t *testing.T) {
	repo := &mockRepo{}
	cache, _ := newRedisCache(t, nil)
	rows := []domain.Assessment{
		{ID: 1, AvgScore: score(t, "3.00")},
		{ID: 2, Category: domain.NewCategory("waste"), AvgScore: score(t, "5.00")},
	}
	repo.On("ListAll", mock.Anything).Return(rows, nil).Once()

	svc := NewAssessmentService(repo, zap.NewNop(), WithCache(cache))
	fresh, err := svc.Summary(context.Background())
	require.NoError(t, err)
	cached, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fresh, cached)
	assert.False(t, cached[0].Category.Valid)
}

func TestRedisCache_DegradesToMiss(t *testing.T) {
	cache, mr := newRedisCache(t, nil)
	mr.Close()

	var dst domain.Stats
	for i := 0; i < 5; i++ {
		_, ok := cache.Generation(context.Background())
		assert.False(t, ok)
		assert.False(t, cache.Get(context.Background(), infra.RedisKeyStats, 0, &dst))
	}
	assert.NotPanics(t, func() {
		cache.Set(context.Background(), infra.RedisKeyStats, 0, domain.Stats{})
		cache.Bump(context.Background())
	})
}

func TestRedisCache_CorruptedEntry(t *testing.T) {
	cache, mr := newRedisCache(t, nil)
	require.NoError(t, mr.Set(infra.ReportKey(infra.RedisKeySummary, 0), "{not json"))

	var dst []domain.CategorySummary
	assert.False(t, cache.Get(context.Background(), infra.RedisKeySummary, 0, &dst))
}
