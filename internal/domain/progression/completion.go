// Package progression содержит модель прогресса ученика: записи о
// завершении уроков, награды и транзакционный контракт хранилища.
// Завершение урока - единственная операция, меняющая сразу несколько
// записей, поэтому её контракт строится вокруг одной транзакции.
package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Completion - запись о завершении урока учеником.
// Пара (LearnerID, LessonID) уникальна: урок засчитывается один раз.
type Completion struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// LearnerID - идентификатор ученика.
	LearnerID string

	// LessonID - идентификатор урока.
	LessonID string

	// Level - уровень ученика в момент завершения.
	Level level.Level

	// CoinsAwarded - монеты, начисленные за это завершение
	// (без бонуса за повышение).
	CoinsAwarded int

	// CompletedAt - время завершения.
	CompletedAt time.Time
}

// NewCompletion создаёт запись о завершении.
func NewCompletion(id, learnerID, lessonID string, lv level.Level, coinsAwarded int, at time.Time) (*Completion, error) {
	if id == "" {
		return nil, errors.New("completion id is required")
	}
	if learnerID == "" {
		return nil, errors.New("learner id is required")
	}
	if lessonID == "" {
		return nil, errors.New("lesson id is required")
	}

	return &Completion{
		ID:           id,
		LearnerID:    learnerID,
		LessonID:     lessonID,
		Level:        lv,
		CoinsAwarded: coinsAwarded,
		CompletedAt:  at.UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARDS
// ══════════════════════════════════════════════════════════════════════════════

// Rewards - настройки начисления монет.
type Rewards struct {
	// LessonCoins - монеты за завершение урока.
	LessonCoins int

	// PromotionBonus - бонус за повышение уровня.
	PromotionBonus int
}

// DefaultRewards возвращает стандартные награды платформы.
func DefaultRewards() Rewards {
	return Rewards{
		LessonCoins:    10,
		PromotionBonus: 50,
	}
}

// Validate проверяет, что награды неотрицательные.
func (r Rewards) Validate() error {
	if r.LessonCoins < 0 || r.PromotionBonus < 0 {
		return errors.New("rewards must be non-negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Progress - прогресс ученика внутри одного уровня.
type Progress struct {
	// Completed - завершено уроков уровня.
	Completed int

	// Total - всего опубликованных уроков уровня.
	Total int
}

// String возвращает представление вида "3/10".
func (p Progress) String() string {
	return fmt.Sprintf("%d/%d", p.Completed, p.Total)
}

// IsLevelComplete возвращает true, когда все уроки уровня завершены.
// Уровень без единого урока завершить нельзя: пустой уровень
// не считается пройденным.
func (p Progress) IsLevelComplete() bool {
	return p.Total > 0 && p.Completed >= p.Total
}
