// Package level содержит иерархию уровней обучения Lingo.
// Это чистая доменная модель - здесь нет внешних зависимостей.
// Иерархия фиксирована на время работы процесса и внедряется
// как значение при старте (никаких глобальных переменных).
package level

import (
	"errors"
	"fmt"
)

// Level представляет уровень обучения (CEFR-код, например "A1").
type Level string

// String возвращает строковое представление уровня.
func (l Level) String() string {
	return string(l)
}

// Уровни CEFR, используемые платформой.
const (
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"
)

// ══════════════════════════════════════════════════════════════════════════════
// HIERARCHY
// ══════════════════════════════════════════════════════════════════════════════

// Hierarchy - упорядоченный набор уровней с разметкой премиум-контента.
// Значение неизменяемо после создания: повышение уровня, проверка доступа
// и прогрессивная разблокировка уроков опираются на один и тот же порядок.
type Hierarchy struct {
	ordered []Level
	rank    map[Level]int
	premium map[Level]bool
}

// Доменные ошибки иерархии.
var (
	// ErrEmptyHierarchy - иерархия не содержит ни одного уровня.
	ErrEmptyHierarchy = errors.New("level hierarchy must contain at least one level")

	// ErrDuplicateLevel - уровень встречается в иерархии дважды.
	ErrDuplicateLevel = errors.New("level hierarchy contains duplicate level")

	// ErrPremiumOutsideHierarchy - премиум-разметка ссылается на неизвестный уровень.
	ErrPremiumOutsideHierarchy = errors.New("premium set references level outside hierarchy")
)

// NewHierarchy создаёт иерархию из упорядоченного списка уровней
// и множества премиум-уровней.
func NewHierarchy(ordered []Level, premium []Level) (Hierarchy, error) {
	if len(ordered) == 0 {
		return Hierarchy{}, ErrEmptyHierarchy
	}

	rank := make(map[Level]int, len(ordered))
	for i, l := range ordered {
		if _, exists := rank[l]; exists {
			return Hierarchy{}, fmt.Errorf("%w: %s", ErrDuplicateLevel, l)
		}
		rank[l] = i + 1 // ранг начинается с 1
	}

	premiumSet := make(map[Level]bool, len(premium))
	for _, l := range premium {
		if _, exists := rank[l]; !exists {
			return Hierarchy{}, fmt.Errorf("%w: %s", ErrPremiumOutsideHierarchy, l)
		}
		premiumSet[l] = true
	}

	orderedCopy := make([]Level, len(ordered))
	copy(orderedCopy, ordered)

	return Hierarchy{
		ordered: orderedCopy,
		rank:    rank,
		premium: premiumSet,
	}, nil
}

// Default возвращает стандартную иерархию CEFR:
// A1-B1 бесплатные, B2-C2 требуют премиум-подписки.
func Default() Hierarchy {
	h, err := NewHierarchy(
		[]Level{A1, A2, B1, B2, C1, C2},
		[]Level{B2, C1, C2},
	)
	if err != nil {
		// Статическая иерархия обязана быть валидной.
		panic(err)
	}
	return h
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// Rank возвращает порядковый номер уровня (с 1).
// Для неизвестного уровня возвращает 0.
func (h Hierarchy) Rank(l Level) int {
	return h.rank[l]
}

// Contains проверяет, входит ли уровень в иерархию.
func (h Hierarchy) Contains(l Level) bool {
	_, ok := h.rank[l]
	return ok
}

// Next возвращает следующий уровень иерархии.
// Второе значение false, если l - высший уровень или неизвестен.
func (h Hierarchy) Next(l Level) (Level, bool) {
	r, ok := h.rank[l]
	if !ok || r >= len(h.ordered) {
		return "", false
	}
	return h.ordered[r], true
}

// IsPremium проверяет, относится ли уровень к премиум-контенту.
// Неизвестный уровень не является премиумом.
func (h Hierarchy) IsPremium(l Level) bool {
	return h.premium[l]
}

// Levels возвращает копию упорядоченного списка уровней.
func (h Hierarchy) Levels() []Level {
	out := make([]Level, len(h.ordered))
	copy(out, h.ordered)
	return out
}

// Highest возвращает высший уровень иерархии.
func (h Hierarchy) Highest() Level {
	return h.ordered[len(h.ordered)-1]
}
