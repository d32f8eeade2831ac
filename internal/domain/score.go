package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidScore возвращается, если значение нельзя привести к числу с двумя знаками.
var ErrInvalidScore = errors.New("invalid score")

// Score: средний балл анкеты в сотых долях (3.67 хранится как 367).
// Колонка avg_score имеет тип DECIMAL(3,2), поэтому целочисленное представление
// не теряет точности ни при чтении, ни при агрегации.
type Score int64

// maxHundredths ограничивает Score диапазоном int64 без MinInt64,
// чтобы смена знака никогда не переполнялась.
var (
	maxHundredths = decimal.NewFromInt(math.MaxInt64)
	minHundredths = decimal.NewFromInt(-math.MaxInt64)
)

// ParseScore разбирает десятичную запись ("3.67", "4", "-0.5", "3.67e0") с округлением
// до двух знаков (половина от нуля). Значения вне диапазона дают ErrInvalidScore.
func ParseScore(s string) (Score, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidScore)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, s)
	}
	return fromDecimal(d, s)
}

// ScoreFromFloat округляет float64 до сотых.
func ScoreFromFloat(f float64) (Score, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScore, f)
	}
	return fromDecimal(decimal.NewFromFloat(f), strconv.FormatFloat(f, 'g', -1, 64))
}

func fromDecimal(d decimal.Decimal, src string) (Score, error) {
	if d.IsZero() {
		return 0, nil
	}
	// 10^19 уже больше MaxInt64, а |d| < 0.001 округляется в ноль: в обоих
	// случаях масштабировать огромный показатель степени не нужно
	if d.Exponent() > 19 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidScore, src)
	}
	if d.NumDigits()+int(d.Exponent()) <= -3 {
		return 0, nil
	}
	h := d.Shift(2).Round(0)
	if h.GreaterThan(maxHundredths) || h.LessThan(minHundredths) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidScore, src)
	}
	return Score(h.IntPart()), nil
}

// MeanScore считает среднее арифметическое суммы sum по n строкам
// с округлением half-up до сотых. Для n == 0 возвращает 0.
func MeanScore(sum Score, n int) Score {
	if n <= 0 {
		return 0
	}
	num, d := int64(sum), int64(n)
	q, r := num/d, num%d
	switch {
	case r > 0 && r >= d-r:
		q++
	case r < 0 && -r >= d+r:
		q--
	}
	return Score(q)
}

// Float64 возвращает значение как число с плавающей точкой.
func (s Score) Float64() float64 {
	return float64(s) / 100
}

// String форматирует балл с двумя знаками после точки: "3.00".
func (s Score) String() string {
	return decimal.New(int64(s), -2).StringFixed(2)
}

// MarshalJSON отдаёт "отображаемую" форму в кавычках, как её ждёт дашборд: "3.00".
func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON принимает и число (3.67), и строку ("3.67").
func (s *Score) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
		raw = str
	}
	v, err := ParseScore(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value передаёт балл драйверу как float64; pgx кладёт его в NUMERIC без потери сотых.
func (s Score) Value() (driver.Value, error) {
	return s.Float64(), nil
}
