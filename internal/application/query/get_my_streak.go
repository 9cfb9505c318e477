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
// GET MY STREAK QUERY
// Возвращает серию дней ученика с ленивой поправкой: хранимое значение
// может устареть, поэтому читатель показывает ноль, если последняя
// активность была раньше вчерашнего дня. Хранимая запись не меняется.
// ══════════════════════════════════════════════════════════════════════════════

// GetMyStreakQuery содержит параметры запроса серии.
type GetMyStreakQuery struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string

	// Now - момент оценки (по умолчанию текущее время).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetMyStreakQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	return nil
}

// GetMyStreakResult содержит результат запроса серии.
type GetMyStreakResult struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string `json:"learner_id"`

	// CurrentStreak - серия с ленивой поправкой.
	CurrentStreak int `json:"current_streak"`

	// StoredStreak - последнее записанное значение (может быть устаревшим).
	StoredStreak int `json:"stored_streak"`

	// LongestStreak - лучшая серия за всё время.
	LongestStreak int `json:"longest_streak"`

	// TotalActiveDays - всего активных дней.
	TotalActiveDays int `json:"total_active_days"`

	// LastActivityDate - день последней активности (nil, если её не было).
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`

	// ActiveToday - была ли активность сегодня.
	ActiveToday bool `json:"active_today"`

	// GeneratedAt - момент формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetMyStreakHandler обрабатывает запросы серии дней.
type GetMyStreakHandler struct {
	streakRepo streak.Repository
	logger     *logger.Logger
}

// NewGetMyStreakHandler создаёт новый обработчик запроса серии.
func NewGetMyStreakHandler(streakRepo streak.Repository, log *logger.Logger) *GetMyStreakHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetMyStreakHandler{
		streakRepo: streakRepo,
		logger:     log.With(logger.Component("get_my_streak")),
	}
}

// Handle выполняет запрос серии дней.
// Отсутствие записи - нулевая серия, не ошибка: ученик, который ещё
// не занимался, видит нули.
func (h *GetMyStreakHandler) Handle(ctx context.Context, query GetMyStreakQuery) (*GetMyStreakResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetMyStreak", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result := &GetMyStreakResult{
		LearnerID:   query.LearnerID,
		GeneratedAt: now,
	}

	s, err := h.streakRepo.GetByLearner(ctx, query.LearnerID)
	if err != nil {
		if shared.IsNotFound(err) {
			return result, nil
		}
		return nil, err
	}

	result.CurrentStreak = s.DisplayedCurrent(now)
	result.StoredStreak = s.CurrentStreak
	result.LongestStreak = s.LongestStreak
	result.TotalActiveDays = s.TotalActiveDays
	result.ActiveToday = s.IsActiveWithin(now, 1)
	if !s.LastActivityDate.IsZero() {
		d := s.LastActivityDate
		result.LastActivityDate = &d
	}

	return result, nil
}
