package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Assessment: одна отправленная анкета углеродного следа.
// Строка создается один раз и дальше только читается.
type Assessment struct {
	ID       int64
	Name     string
	Email    string
	Phone    *string
	Category Category
	// Answers хранится как непрозрачный JSON-документ, ядро его не разбирает
	Answers  json.RawMessage
	AvgScore *Score // nil, если в базе NULL
	Comment  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssessmentInput: тело POST /api/assessment.
// Кроме приведения типов ничего не валидируется: avgScore считается на клиенте.
type AssessmentInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    *string         `json:"phone,omitempty"`
	Category Category        `json:"category"`
	Answers  json.RawMessage `json:"answers"`
	AvgScore *Score          `json:"avgScore"`
	Comment  *string         `json:"comment,omitempty"`
}

type assessmentJSON struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     *string         `json:"phone"`
	Category  Category        `json:"category"`
	Answers   json.RawMessage `json:"answers"`
	AvgScoreS *string         `json:"avg_score"` // как колонка NUMERIC: "3.67"
	Comment   *string         `json:"comment"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	AvgScore  *float64        `json:"avgScore"` // для фронтенда всегда число
}

// MarshalJSON повторяет форму строки таблицы и добавляет avgScore числом.
func (a Assessment) MarshalJSON() ([]byte, error) {
	out := assessmentJSON{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Category:  a.Category,
		Answers:   a.Answers,
		Comment:   a.Comment,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.AvgScore != nil {
		text := a.AvgScore.String()
		f := a.AvgScore.Float64()
		out.AvgScoreS = &text
		out.AvgScore = &f
	}
	return json.Marshal(out)
}

// UnmarshalJSON читает ту же форму, что пишет MarshalJSON.
// Текстовый avg_score точнее, поэтому он главнее числового avgScore.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	var in assessmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Assessment{
		ID:        in.ID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Category:  in.Category,
		Answers:   in.Answers,
		Comment:   in.Comment,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	switch {
	case in.AvgScoreS != nil:
		s, err := ParseScore(*in.AvgScoreS)
		if err != nil {
			return fmt.Errorf("avg_score: %w", err)
		}
		a.AvgScore = &s
	case in.AvgScore != nil:
		s, err := ScoreFromFloat(*in.AvgScore)
		if err != nil {
			return fmt.Errorf("avgScore: %w", err)
		}
		a.AvgScore = &s
	}
	return nil
}
