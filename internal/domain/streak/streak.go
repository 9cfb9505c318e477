// Package streak содержит трекер серии активных дней ученика.
// Серия сравнивает календарные дни UTC, а не прошедшие часы:
// активность в 23:59 и 00:01 следующего дня - соседние дни.
package streak

import (
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Streak представляет серию активных дней ученика.
// Хранимое значение CurrentStreak может устареть: запись исправляется
// только следующей активностью, а чтение использует DisplayedCurrent.
type Streak struct {
	// LearnerID - идентификатор ученика.
	LearnerID string

	// CurrentStreak - текущая серия дней (последнее записанное значение).
	CurrentStreak int

	// LongestStreak - лучшая серия за всё время. Никогда не уменьшается.
	LongestStreak int

	// LastActivityDate - календарный день последней активности (UTC).
	// Нулевое значение - активности ещё не было.
	LastActivityDate time.Time

	// TotalActiveDays - общее число активных дней.
	TotalActiveDays int

	// UpdatedAt - время последнего обновления записи.
	UpdatedAt time.Time
}

// ErrEmptyLearnerID - серия без идентификатора ученика.
var ErrEmptyLearnerID = errors.New("streak learner id is required")

// NewStreak создаёт пустой трекер серии.
func NewStreak(learnerID string) (*Streak, error) {
	if learnerID == "" {
		return nil, ErrEmptyLearnerID
	}
	return &Streak{LearnerID: learnerID}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE MACHINE
// ══════════════════════════════════════════════════════════════════════════════

// Outcome описывает результат записи активности.
type Outcome struct {
	// Changed - изменилась ли запись (false для повторной активности
	// в тот же день).
	Changed bool

	// Extended - серия выросла (первый день или продолжение).
	Extended bool

	// Broken - серия прервалась и началась заново.
	Broken bool

	// PreviousStreak - длина серии до разрыва (0 без разрыва).
	PreviousStreak int

	// DaysMissed - сколько дней пропущено при разрыве.
	DaysMissed int
}

// RecordActivity записывает активность и обновляет серию.
//   - тот же день: запись не меняется;
//   - следующий день: серия растёт, лучший результат подтягивается;
//   - пропуск: серия начинается заново с единицы.
//
// TotalActiveDays растёт при каждом новом активном дне.
func (s *Streak) RecordActivity(now time.Time) Outcome {
	day := timeutil.DateOnly(now)

	// Первая активность ученика.
	if s.LastActivityDate.IsZero() {
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		s.LastActivityDate = day
		s.TotalActiveDays = 1
		s.UpdatedAt = time.Now().UTC()
		return Outcome{Changed: true, Extended: true}
	}

	daysDiff := timeutil.DaysBetween(s.LastActivityDate, day)

	switch {
	case daysDiff <= 0:
		// Тот же день (или время ушло назад) - ничего не меняем.
		return Outcome{}

	case daysDiff == 1:
		// Следующий день - продолжаем серию.
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		s.LastActivityDate = day
		s.TotalActiveDays++
		s.UpdatedAt = time.Now().UTC()
		return Outcome{Changed: true, Extended: true}

	default:
		// Пропущены дни - серия начинается заново.
		previous := s.CurrentStreak
		s.CurrentStreak = 1
		s.LastActivityDate = day
		s.TotalActiveDays++
		s.UpdatedAt = time.Now().UTC()
		return Outcome{
			Changed:        true,
			Broken:         true,
			PreviousStreak: previous,
			DaysMissed:     daysDiff - 1,
		}
	}
}

// DisplayedCurrent возвращает серию для отображения с ленивой поправкой:
// если последняя активность была раньше вчерашнего дня, серия фактически
// прервана и показывается ноль. Хранимая запись при этом не меняется -
// её исправит следующая активность.
func (s *Streak) DisplayedCurrent(now time.Time) int {
	if s.LastActivityDate.IsZero() {
		return 0
	}
	if timeutil.IsToday(s.LastActivityDate, now) || timeutil.IsYesterday(s.LastActivityDate, now) {
		return s.CurrentStreak
	}
	return 0
}

// IsActiveWithin возвращает true, если последняя активность попадает
// в окно последних n календарных дней.
func (s *Streak) IsActiveWithin(now time.Time, n int) bool {
	if s.LastActivityDate.IsZero() {
		return false
	}
	return timeutil.WithinLastDays(s.LastActivityDate, now, n)
}
