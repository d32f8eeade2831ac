package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessment_MarshalJSON(t *testing.T) {
	score := Score(367)
	phone := "0812345678"
	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	a := Assessment{
		ID:        7,
		Name:      "A",
		Email:     "a@x.com",
		Phone:     &phone,
		Category:  NewCategory("energy"),
		Answers:   json.RawMessage(`{"q1":5}`),
		AvgScore:  &score,
		CreatedAt: created,
		UpdatedAt: created,
	}

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, "energy", got["category"])
	assert.Equal(t, "3.67", got["avg_score"])
	assert.Equal(t, 3.67, got["avgScore"])
	assert.Equal(t, map[string]any{"q1": float64(5)}, got["answers"])
	assert.Nil(t, got["comment"])
}

func TestAssessment_MarshalJSON_NullScore(t *testing.T) {
	b, err := json.Marshal(Assessment{ID: 1})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Nil(t, got["avgScore"])
	assert.Nil(t, got["avg_score"])
	assert.Nil(t, got["category"])
	assert.Nil(t, got["answers"])
}

func TestAssessmentInput_Unmarshal(t *testing.T) {
	var in AssessmentInput
	err := json.Unmarshal([]byte(`{
		"name": "B", "email": "b@x.com", "category": "energy",
		"answers": {"q1": 2, "q2": [1, 2]}, "avgScore": 2.00
	}`), &in)
	require.NoError(t, err)

	assert.Equal(t, "B", in.Name)
	assert.Nil(t, in.Phone)
	assert.Nil(t, in.Comment)
	require.NotNil(t, in.AvgScore)
	assert.Equal(t, Score(200), *in.AvgScore)
	assert.JSONEq(t, `{"q1": 2, "q2": [1, 2]}`, string(in.Answers))
}

func TestAssessment_UnmarshalJSON_PrefersTextScore(t *testing.T) {
	var a Assessment
	err := json.Unmarshal([]byte(`{
		"id": 3, "name": "C", "email": "c@x.com", "category": null,
		"avg_score": "2.35", "avgScore": 2.3499999,
		"created_at": "2026-10-01T09:30:00Z", "updated_at": "2026-10-01T09:31:00Z"
	}`), &a)
	require.NoError(t, err)

	assert.Equal(t, int64(3), a.ID)
	assert.False(t, a.Category.Valid)
	require.NotNil(t, a.AvgScore)
	assert.Equal(t, "2.35", a.AvgScore.String())
	assert.Equal(t, time.Date(2026, 10, 1, 9, 31, 0, 0, time.UTC), a.UpdatedAt)
}

func TestAssessment_UnmarshalJSON_FloatOnly(t *testing.T) {
	var a Assessment
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"avgScore":4}`), &a))
	require.NotNil(t, a.AvgScore)
	assert.Equal(t, "4.00", a.AvgScore.String())
}
