package export

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xela07ax/carbon-assessment/internal/domain"
)

// BOM нужен, чтобы Excel распознал UTF-8 и корректно показал тайские заголовки.
const BOM = "\uFEFF"

// csvHeader: подписи колонок: №, ФИО, email, телефон, категория, средний балл, комментарий, дата.
var csvHeader = []string{
	"ลำดับที่", "ชื่อ-สกุล", "อีเมล", "เบอร์โทร", "หมวดหมู่", "คะแนนเฉลี่ย", "ความเห็น", "วันที่",
}

// CSV формирует выгрузку: BOM, строка заголовка и по одной строке на анкету.
// Текстовые поля всегда в кавычках, встроенные кавычки удваиваются (RFC 4180).
// Номер строки и балл пишутся без кавычек.
func CSV(rows []domain.Assessment) []byte {
	var buf bytes.Buffer
	buf.WriteString(BOM)
	buf.WriteString(strings.Join(csvHeader, ","))
	buf.WriteByte('\n')

	for i, r := range rows {
		fields := []string{
			strconv.Itoa(i + 1),
			quote(r.Name),
			quote(r.Email),
			quote(deref(r.Phone)),
			quote(r.Category.String()),
			scoreText(r.AvgScore),
			quote(deref(r.Comment)),
			quote(formatTime(r.CreatedAt)),
		}
		buf.WriteString(strings.Join(fields, ","))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
