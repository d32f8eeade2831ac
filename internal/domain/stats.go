package domain

import "encoding/json"

// CategorySummary: строка ответа /api/summary.
type CategorySummary struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	AvgScore Score    `json:"avg_score"`
}

// CategoryStats: агрегаты одной категории внутри Stats.
type CategoryStats struct {
	Count    int   `json:"count"`
	AvgScore Score `json:"avgScore"`
}

// Stats: ответ /api/stats.
// AvgScore: среднее по всем строкам, а не среднее средних по категориям.
type Stats struct {
	TotalCount int                        `json:"totalCount"`
	AvgScore   Score                      `json:"avgScore"`
	Categories map[Category]CategoryStats `json:"categories"`
}

// MarshalJSON: для пустой выборки avgScore отдается числом 0, иначе строкой "3.00".
func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	if s.TotalCount > 0 {
		return json.Marshal(plain(s))
	}
	return json.Marshal(struct {
		plain
		AvgScore int `json:"avgScore"`
	}{plain: plain(s)})
}
