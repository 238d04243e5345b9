package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func at(h float64) *time.Time {
	t := now.Add(time.Duration(h * float64(time.Hour)))
	return &t
}

func TestScore_Formula(t *testing.T) {
	// 48 часов до срока: -2*48 + 3*5 - 30
	assert.InDelta(t, -96.0+15-30, Score(5, 30, at(48), now), 1e-9)
	// 10 часов до срока: -5*10 + 3*1 - 0
	assert.InDelta(t, -50.0+3, Score(1, 0, at(10), now), 1e-9)
	// ровно 24 часа - ещё срочное окно
	assert.InDelta(t, -120.0, Score(0, 0, at(24), now), 1e-9)
	// просроченная задача получает положительный вклад срока
	assert.InDelta(t, 25.0, Score(0, 0, at(-5), now), 1e-9)
}

func TestScore_NoDueDateUsesFiniteHorizon(t *testing.T) {
	s := Score(10, 0, nil, now)
	assert.InDelta(t, -2*NoDueDateHorizonHours+30, s, 1e-9)
	// задача с любым сроком в пределах года важнее задачи без срока
	assert.Greater(t, Score(1, 0, at(24*300), now), Score(1, 0, nil, now))
}

func TestScore_MonotonicInEffortAndPriority(t *testing.T) {
	for _, due := range []*time.Time{nil, at(2), at(100), at(-3)} {
		prev := Score(5, 0, due, now)
		for effort := 1; effort <= 120; effort += 7 {
			s := Score(5, effort, due, now)
			assert.Less(t, s, prev, "score must decrease with effort")
			prev = s
		}
		prev = Score(1, 30, due, now)
		for p := 2; p <= 10; p++ {
			s := Score(p, 30, due, now)
			assert.Greater(t, s, prev, "score must increase with priority")
			prev = s
		}
	}
}

type task struct {
	name string
	f    Factors
}

func factorsOf(t task) Factors { return t.f }

func TestRank_OrdersByScoreDescending(t *testing.T) {
	tasks := []task{
		{"later", Factors{Priority: 5, DueDate: at(72)}},
		{"soon", Factors{Priority: 5, DueDate: at(3)}},
		{"none", Factors{Priority: 10}},
		{"overdue", Factors{Priority: 1, DueDate: at(-1)}},
	}
	ranked := Rank(tasks, now, factorsOf)
	names := make([]string, 0, len(ranked))
	for i, r := range ranked {
		names = append(names, r.Item.name)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, r.Score)
		}
	}
	assert.Equal(t, []string{"overdue", "soon", "later", "none"}, names)
}

func TestRank_StableForEqualScores(t *testing.T) {
	tasks := []task{
		{"a", Factors{Priority: 3, EstimatedEffort: 10}},
		{"b", Factors{Priority: 4, EstimatedEffort: 13}}, // тот же счёт, что у a
		{"c", Factors{Priority: 9}},
		{"d", Factors{Priority: 3, EstimatedEffort: 10}},
	}
	ranked := Rank(tasks, now, factorsOf)
	var names []string
	for _, r := range ranked {
		names = append(names, r.Item.name)
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, names)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank([]task(nil), now, factorsOf))
}
