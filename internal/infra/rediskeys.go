package infra

import "strconv"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "carbon"
)

// Ключи кэша отчетов. Реальный ключ записи содержит поколение: ReportKey(RedisKeyStats, gen).
const (
	RedisKeySummary = RedisNamespace + ":report:summary"
	RedisKeyStats   = RedisNamespace + ":report:stats"
)

// RedisKeyReportGen: счетчик поколений отчетов, INCR после каждой новой анкеты.
// Ключ живет без TTL.
const RedisKeyReportGen = RedisNamespace + ":report:gen"

// ReportKey возвращает ключ отчета base для поколения gen.
func ReportKey(base string, gen int64) string {
	return base + ":" + strconv.FormatInt(gen, 10)
}
