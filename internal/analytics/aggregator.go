// Package analytics считает сводную статистику по анкетам.
// Все функции чистые: принимают уже выбранные из хранилища строки и ничего не меняют.
package analytics

import "github.com/xela07ax/carbon-assessment/internal/domain"

// bucket: накопитель одной группы. Суммы ведутся в сотых, поэтому среднее точное.
type bucket struct {
	category domain.Category
	count    int
	scored   int
	sum      domain.Score
}

func (b *bucket) add(a domain.Assessment) {
	b.count++
	if a.AvgScore != nil {
		b.scored++
		b.sum += *a.AvgScore
	}
}

func (b *bucket) mean() domain.Score {
	return domain.MeanScore(b.sum, b.scored)
}

// partition раскладывает строки по категориям в порядке первого появления.
// NULL-категория образует свою группу и не теряется.
func partition(rows []domain.Assessment) []*bucket {
	index := make(map[domain.Category]*bucket)
	order := make([]*bucket, 0)

	for _, row := range rows {
		b, ok := index[row.Category]
		if !ok {
			b = &bucket{category: row.Category}
			index[row.Category] = b
			order = append(order, b)
		}
		b.add(row)
	}
	return order
}

// Summarize возвращает количество и средний балл по каждой категории.
// Порядок детерминирован: категории идут в порядке первого появления в rows.
func Summarize(rows []domain.Assessment) []domain.CategorySummary {
	buckets := partition(rows)

	out := make([]domain.CategorySummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domain.CategorySummary{
			Category: b.category,
			Count:    b.count,
			AvgScore: b.mean(),
		})
	}
	return out
}

// Compute собирает общую статистику. Общий средний балл считается по всем строкам,
// а не как среднее средних. Для пустого набора: 0 строк и средний балл 0.
func Compute(rows []domain.Assessment) domain.Stats {
	total := bucket{}
	for _, row := range rows {
		total.add(row)
	}

	buckets := partition(rows)
	categories := make(map[domain.Category]domain.CategoryStats, len(buckets))
	for _, b := range buckets {
		categories[b.category] = domain.CategoryStats{
			Count:    b.count,
			AvgScore: b.mean(),
		}
	}

	return domain.Stats{
		TotalCount: total.count,
		AvgScore:   total.mean(),
		Categories: categories,
	}
}
