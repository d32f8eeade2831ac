package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/carbon-assessment/internal/domain"
)

var columns = []string{"id", "name", "email", "phone", "category", "answers", "avg_score", "comment", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

func scorePtr(t *testing.T, s string) *domain.Score {
	t.Helper()
	v, err := domain.ParseScore(s)
	require.NoError(t, err)
	return &v
}

func TestAssessmentRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	in := domain.AssessmentInput{
		Name:     "Somchai",
		Email:    "somchai@example.com",
		Phone:    strPtr("0812345678"),
		Category: domain.NewCategory("energy"),
		Answers:  json.RawMessage(`{"q1":4}`),
		AvgScore: scorePtr(t, "3.67"),
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assessments")).
		WithArgs("Somchai", "somchai@example.com", "0812345678", "energy", `{"q1":4}`, 3.67, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := NewAssessmentRepo(db).Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepo_CreateNulls(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assessments")).
		WithArgs("A", "a@b.c", nil, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err = NewAssessmentRepo(db).Create(context.Background(), domain.AssessmentInput{Name: "A", Email: "a@b.c"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepo_CreateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assessments")).
		WillReturnError(errors.New(`null value in column "email" violates not-null constraint`))

	_, err = NewAssessmentRepo(db).Create(context.Background(), domain.AssessmentInput{Name: "A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "not-null constraint")
}

func TestAssessmentRepo_ListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	rows := sqlmock.NewRows(columns).
		AddRow(int64(2), "B", "b@x.th", nil, "waste", []byte(`{"q":1}`), "3.67", "ok", created, updated).
		AddRow(int64(1), "A", "a@x.th", "0800", nil, nil, nil, nil, created, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assessments ORDER BY created_at DESC, id DESC")).WillReturnRows(rows)

	got, err := NewAssessmentRepo(db).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, int64(2), first.ID)
	assert.Equal(t, domain.NewCategory("waste"), first.Category)
	assert.JSONEq(t, `{"q":1}`, string(first.Answers))
	require.NotNil(t, first.AvgScore)
	assert.Equal(t, "3.67", first.AvgScore.String())
	assert.Equal(t, "ok", *first.Comment)
	assert.Nil(t, first.Phone)
	assert.Equal(t, updated, first.UpdatedAt)

	second := got[1]
	assert.False(t, second.Category.Valid)
	assert.Nil(t, second.AvgScore)
	assert.Nil(t, second.Answers)
	assert.Equal(t, "0800", *second.Phone)
	assert.Equal(t, created, second.UpdatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepo_ListByCategoryEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = $1")).
		WithArgs("nonexistent").
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := NewAssessmentRepo(db).ListByCategory(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAssessmentRepo_ListError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(driver.ErrBadConn)

	_, err = NewAssessmentRepo(db).ListAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestAssessmentRepo_ListRowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(int64(1), "A", "a@x.th", nil, "energy", nil, "4.00", nil, now, now).
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, err = NewAssessmentRepo(db).ListAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAssessmentRepo_Ping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT NOW()")).
		WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT NOW()")).
		WillReturnError(errors.New("connection refused"))

	repo := NewAssessmentRepo(db)
	assert.NoError(t, repo.Ping(context.Background()))

	err = repo.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "connection refused")
}
