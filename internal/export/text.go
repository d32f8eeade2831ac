package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xela07ax/carbon-assessment/internal/domain"
)

const (
	placeholder = "-"
	titleText   = "สรุปผลการประเมิน Carbon Footprint for School"
)

var (
	border  = strings.Repeat("═", 59)
	divider = strings.Repeat("─", 59)
)

// Text формирует человекочитаемый отчет: рамка с заголовком, затем блок на каждую анкету.
// Формат не предназначен для машинного разбора.
func Text(rows []domain.Assessment) []byte {
	var buf bytes.Buffer
	buf.WriteString(border + "\n")
	buf.WriteString("         " + titleText + "\n")
	buf.WriteString(border + "\n\n")

	for i, r := range rows {
		fmt.Fprintf(&buf, "ลำดับที่: %d\n", i+1)
		fmt.Fprintf(&buf, "ชื่อ-สกุล: %s\n", r.Name)
		fmt.Fprintf(&buf, "อีเมล: %s\n", r.Email)
		fmt.Fprintf(&buf, "เบอร์โทร: %s\n", orPlaceholder(deref(r.Phone)))
		fmt.Fprintf(&buf, "หมวดหมู่: %s\n", orPlaceholder(r.Category.String()))
		fmt.Fprintf(&buf, "คะแนนเฉลี่ย: %s/5.00\n", orPlaceholder(scoreText(r.AvgScore)))
		fmt.Fprintf(&buf, "ความเห็น: %s\n", orPlaceholder(deref(r.Comment)))
		fmt.Fprintf(&buf, "วันที่: %s\n", formatTime(r.CreatedAt))
		buf.WriteString(divider + "\n\n")
	}
	return buf.Bytes()
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
