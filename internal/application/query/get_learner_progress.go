// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// The one sanctioned exception is lazy subscription reconciliation:
// a read path that observes an expired subscription persists the
// corrected record before answering.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER PROGRESS QUERY
// Возвращает полный снимок прогресса ученика: уровень, монеты,
// прогресс внутри уровня, серию дней и состояние подписки.
// ══════════════════════════════════════════════════════════════════════════════

// GetLearnerProgressQuery содержит параметры запроса прогресса.
type GetLearnerProgressQuery struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string

	// Now - момент оценки (по умолчанию текущее время).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetLearnerProgressQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	return nil
}

// SubscriptionDTO - снимок подписки для ответа.
type SubscriptionDTO struct {
	// Status - текущий статус: free или premium.
	Status string `json:"status"`

	// Plan - активный план (пусто для free).
	Plan string `json:"plan,omitempty"`

	// ExpiresAt - момент истечения (nil для free и lifetime).
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Downgraded - была ли подписка понижена этим запросом.
	Downgraded bool `json:"downgraded,omitempty"`
}

// StreakDTO - снимок серии дней для ответа.
type StreakDTO struct {
	// Current - серия с ленивой поправкой: 0, если последняя
	// активность была раньше вчерашнего дня.
	Current int `json:"current"`

	// Longest - лучшая серия за всё время.
	Longest int `json:"longest"`

	// TotalActiveDays - всего активных дней.
	TotalActiveDays int `json:"total_active_days"`

	// LastActivityDate - день последней активности (nil, если её не было).
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
}

// GetLearnerProgressResult содержит результат запроса прогресса.
type GetLearnerProgressResult struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string `json:"learner_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// Level - текущий уровень (пусто, если не выбран).
	Level string `json:"level,omitempty"`

	// Coins - баланс монет.
	Coins int `json:"coins"`

	// Progress - прогресс внутри уровня в виде "3/10"
	// (пусто, если уровень не выбран).
	Progress string `json:"progress,omitempty"`

	// CompletedLessons - завершено уроков текущего уровня.
	CompletedLessons int `json:"completed_lessons"`

	// TotalLessons - всего опубликованных уроков текущего уровня.
	TotalLessons int `json:"total_lessons"`

	// Streak - снимок серии дней.
	Streak StreakDTO `json:"streak"`

	// Subscription - снимок подписки после сверки.
	Subscription SubscriptionDTO `json:"subscription"`

	// GeneratedAt - момент формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLearnerProgressHandler обрабатывает запросы прогресса ученика.
type GetLearnerProgressHandler struct {
	learnerRepo learner.Repository
	lessonRepo  lessonCounter
	completions progression.Reader
	streakRepo  streak.Repository
	logger      *logger.Logger
}

// lessonCounter - срез lesson.Repository, нужный этому запросу.
type lessonCounter interface {
	CountPublishedByLevel(ctx context.Context, lv level.Level) (int, error)
}

// NewGetLearnerProgressHandler создаёт новый обработчик запроса прогресса.
func NewGetLearnerProgressHandler(
	learnerRepo learner.Repository,
	lessonRepo lessonCounter,
	completions progression.Reader,
	streakRepo streak.Repository,
	log *logger.Logger,
) *GetLearnerProgressHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetLearnerProgressHandler{
		learnerRepo: learnerRepo,
		lessonRepo:  lessonRepo,
		completions: completions,
		streakRepo:  streakRepo,
		logger:      log.With(logger.Component("get_learner_progress")),
	}
}

// Handle выполняет запрос прогресса ученика.
func (h *GetLearnerProgressHandler) Handle(ctx context.Context, query GetLearnerProgressQuery) (*GetLearnerProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLearnerProgress", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	l, err := h.learnerRepo.GetByID(ctx, query.LearnerID)
	if err != nil {
		return nil, err
	}

	// Ленивая сверка подписки: истёкшая запись исправляется здесь же.
	decision := l.ReconcileSubscription(now)
	if decision.Downgraded {
		if err := h.learnerRepo.Update(ctx, l); err != nil {
			h.logger.Warn("failed to persist lazy downgrade",
				logger.LearnerID(l.ID),
				logger.Err(err),
			)
		}
	}

	result := &GetLearnerProgressResult{
		LearnerID:   l.ID,
		DisplayName: l.DisplayName,
		Coins:       int(l.Coins),
		Subscription: SubscriptionDTO{
			Status:     string(decision.Snapshot.Status),
			Plan:       string(decision.Snapshot.Plan),
			ExpiresAt:  decision.Snapshot.ExpiresAt,
			Downgraded: decision.Downgraded,
		},
		GeneratedAt: now,
	}

	// Прогресс внутри уровня - только когда уровень выбран.
	if l.HasLevel() {
		current := *l.CurrentLevel
		result.Level = current.String()

		total, err := h.lessonRepo.CountPublishedByLevel(ctx, current)
		if err != nil {
			return nil, err
		}
		completed, err := h.completions.CountByLevel(ctx, l.ID, current)
		if err != nil {
			return nil, err
		}

		progress := progression.Progress{Completed: completed, Total: total}
		result.Progress = progress.String()
		result.CompletedLessons = completed
		result.TotalLessons = total
	}

	// Серия дней: отсутствие записи - нулевая серия, не ошибка.
	s, err := h.streakRepo.GetByLearner(ctx, l.ID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
	} else {
		result.Streak = StreakDTO{
			Current:         s.DisplayedCurrent(now),
			Longest:         s.LongestStreak,
			TotalActiveDays: s.TotalActiveDays,
		}
		if !s.LastActivityDate.IsZero() {
			d := s.LastActivityDate
			result.Streak.LastActivityDate = &d
		}
	}

	return result, nil
}
