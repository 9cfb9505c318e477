package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STREAK LEADERBOARD QUERY
// Два рейтинга серий: по текущей серии и по лучшей за всё время.
// Рейтинг текущих серий учитывает только учеников с активностью
// сегодня или вчера - устаревшая серия фактически нулевая и в
// рейтинг не попадает.
// ══════════════════════════════════════════════════════════════════════════════

// StreakBoard определяет вид рейтинга серий.
type StreakBoard string

const (
	// BoardCurrent - рейтинг по текущей серии.
	BoardCurrent StreakBoard = "current"

	// BoardLongest - рейтинг по лучшей серии за всё время.
	BoardLongest StreakBoard = "longest"
)

// GetStreakLeaderboardQuery содержит параметры запроса рейтинга серий.
type GetStreakLeaderboardQuery struct {
	// Board - вид рейтинга (по умолчанию current).
	Board StreakBoard

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// Now - момент оценки (по умолчанию текущее время).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetStreakLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	switch q.Board {
	case "":
		q.Board = BoardCurrent
	case BoardCurrent, BoardLongest:
	default:
		return errors.New("unknown streak board")
	}
	return nil
}

// StreakEntryDTO - запись рейтинга серий.
type StreakEntryDTO struct {
	// Rank - позиция в рейтинге (с 1).
	Rank int `json:"rank"`

	// LearnerID - внутренний ID ученика.
	LearnerID string `json:"learner_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// CurrentStreak - текущая серия.
	CurrentStreak int `json:"current_streak"`

	// LongestStreak - лучшая серия.
	LongestStreak int `json:"longest_streak"`

	// TotalActiveDays - всего активных дней.
	TotalActiveDays int `json:"total_active_days"`
}

// GetStreakLeaderboardResult содержит результат запроса рейтинга.
type GetStreakLeaderboardResult struct {
	// Board - вид рейтинга.
	Board StreakBoard `json:"board"`

	// Entries - записи рейтинга.
	Entries []StreakEntryDTO `json:"entries"`

	// GeneratedAt - момент формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStreakLeaderboardHandler обрабатывает запросы рейтинга серий.
type GetStreakLeaderboardHandler struct {
	streakRepo streak.Repository
	logger     *logger.Logger
}

// NewGetStreakLeaderboardHandler создаёт новый обработчик рейтинга серий.
func NewGetStreakLeaderboardHandler(streakRepo streak.Repository, log *logger.Logger) *GetStreakLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetStreakLeaderboardHandler{
		streakRepo: streakRepo,
		logger:     log.With(logger.Component("get_streak_leaderboard")),
	}
}

// Handle выполняет запрос рейтинга серий.
func (h *GetStreakLeaderboardHandler) Handle(ctx context.Context, query GetStreakLeaderboardQuery) (*GetStreakLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStreakLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var (
		entries []streak.Entry
		err     error
	)
	switch query.Board {
	case BoardLongest:
		entries, err = h.streakRepo.TopLongest(ctx, query.Limit)
	default:
		entries, err = h.streakRepo.TopCurrent(ctx, now, query.Limit)
	}
	if err != nil {
		return nil, err
	}

	result := &GetStreakLeaderboardResult{
		Board:       query.Board,
		Entries:     make([]StreakEntryDTO, 0, len(entries)),
		GeneratedAt: now,
	}

	for i, e := range entries {
		result.Entries = append(result.Entries, StreakEntryDTO{
			Rank:            i + 1,
			LearnerID:       e.LearnerID,
			DisplayName:     e.DisplayName,
			CurrentStreak:   e.CurrentStreak,
			LongestStreak:   e.LongestStreak,
			TotalActiveDays: e.TotalActiveDays,
		})
	}

	return result, nil
}
