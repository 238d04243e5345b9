// Package scoring вычисляет срочность задач и упорядочивает их.
//
// Счёт считается в часах:
//
//	score = dueWeight*hoursUntilDue + 3*priority - 1*estimatedEffort
//
// где dueWeight = -5 для задач со сроком в ближайшие 24 часа и -2 для остальных.
// Функции чистые: время передаётся явно.
package scoring

import (
	"sort"
	"time"
)

const (
	// UrgentWindowHours - окно, внутри которого срок штрафуется сильнее.
	UrgentWindowHours = 24.0
	// NoDueDateHorizonHours - конечный горизонт для задач без срока (один год).
	NoDueDateHorizonHours = 365 * 24.0

	weightDueUrgent = -5.0
	weightDueLater  = -2.0
	weightPriority  = 3.0
	weightEffort    = -1.0
)

// Factors - входные данные для расчёта счёта.
type Factors struct {
	Priority        int
	EstimatedEffort int // минуты
	DueDate         *time.Time
}

// HoursUntilDue возвращает число часов до срока; nil срок даёт конечный горизонт.
func HoursUntilDue(due *time.Time, now time.Time) float64 {
	if due == nil {
		return NoDueDateHorizonHours
	}
	return due.Sub(now).Hours()
}

// Score вычисляет счёт задачи. Больше - важнее.
func Score(priority, estimatedEffort int, due *time.Time, now time.Time) float64 {
	hours := HoursUntilDue(due, now)
	dueWeight := weightDueLater
	if hours <= UrgentWindowHours {
		dueWeight = weightDueUrgent
	}
	return dueWeight*hours + weightPriority*float64(priority) + weightEffort*float64(estimatedEffort)
}

// ScoreOf - Score для Factors.
func ScoreOf(f Factors, now time.Time) float64 {
	return Score(f.Priority, f.EstimatedEffort, f.DueDate, now)
}

// Ranked - элемент с посчитанным счётом.
type Ranked[T any] struct {
	Item  T
	Score float64
}

// Rank упорядочивает элементы по убыванию счёта. Сортировка стабильная:
// элементы с равным счётом сохраняют исходный порядок.
func Rank[T any](items []T, now time.Time, factors func(T) Factors) []Ranked[T] {
	out := make([]Ranked[T], len(items))
	for i, it := range items {
		out[i] = Ranked[T]{Item: it, Score: ScoreOf(factors(it), now)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
