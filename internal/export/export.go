// Package export рендерит выгрузки анкет для скачивания из админки.
// Рендереры: чистые функции: порядок строк задает хранилище (новые сверху).
package export

import (
	"time"

	"github.com/xela07ax/carbon-assessment/internal/domain"
)

// TimeLayout: единый формат даты в обеих выгрузках.
const TimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scoreText(s *domain.Score) string {
	if s == nil {
		return ""
	}
	return s.String()
}
