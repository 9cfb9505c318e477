// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LESSON COMPLETED HANDLER
// Обрабатывает событие завершения урока учеником.
//
// Ключевые функции:
// 1. Обновление рейтинга монет в Redis - чтобы горячий путь чтения
//    не ходил в PostgreSQL
// 2. Сброс кеша профиля ученика - баланс монет изменился
//
// Обработчик работает после коммита транзакции завершения и не влияет
// на её результат: любой сбой здесь лишь откладывает обновление кеша
// до следующей перестройки.
// ═══════════════════════════════════════════════════════════════════════════

// CoinScoreUpdater обновляет счёт ученика в кеше рейтинга монет.
// Реализация находится в infrastructure/persistence/redis.
type CoinScoreUpdater interface {
	UpdateScore(ctx context.Context, entry learner.CoinEntry) error
}

// OnLessonCompletedHandler обрабатывает событие завершения урока.
type OnLessonCompletedHandler struct {
	learnerRepo  learner.Repository
	leaderboard  CoinScoreUpdater
	learnerCache learner.Cache

	logger *slog.Logger
}

// NewOnLessonCompletedHandler создаёт новый обработчик события завершения урока.
// leaderboard и learnerCache могут быть nil - соответствующий шаг пропускается.
func NewOnLessonCompletedHandler(
	learnerRepo learner.Repository,
	leaderboard CoinScoreUpdater,
	learnerCache learner.Cache,
	logger *slog.Logger,
) *OnLessonCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnLessonCompletedHandler{
		learnerRepo:  learnerRepo,
		leaderboard:  leaderboard,
		learnerCache: learnerCache,
		logger:       logger.With("handler", "on_lesson_completed"),
	}
}

// Handle обрабатывает событие завершения урока.
// Сигнатура совпадает с shared.EventHandler: метод подписывается
// на шину как bus.Subscribe(h.EventType(), h.Handle).
func (h *OnLessonCompletedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	lessonEvent, ok := event.(shared.LessonCompletedEvent)
	if !ok {
		h.logger.Warn("received non-LessonCompletedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing lesson completed event",
		"learner_id", lessonEvent.LearnerID,
		"lesson_id", lessonEvent.LessonID,
		"coins_awarded", lessonEvent.CoinsAwarded,
		"new_balance", lessonEvent.NewCoinBalance,
	)

	// 1. Сбрасываем кеш профиля - баланс монет устарел
	if h.learnerCache != nil {
		if err := h.learnerCache.Invalidate(ctx, lessonEvent.LearnerID); err != nil {
			h.logger.Warn("failed to invalidate learner cache",
				"learner_id", lessonEvent.LearnerID,
				"error", err,
			)
		}
	}

	// 2. Обновляем рейтинг монет
	if h.leaderboard != nil {
		if err := h.updateLeaderboard(ctx, lessonEvent); err != nil {
			h.logger.Error("failed to update coin leaderboard",
				"learner_id", lessonEvent.LearnerID,
				"error", err,
			)
			// Не возвращаем ошибку - следующая перестройка кеша
			// восстановит рейтинг из PostgreSQL
		}
	}

	return nil
}

// updateLeaderboard обновляет счёт ученика в кеше рейтинга монет.
// Имя для отображения берётся из репозитория: событие его не несёт.
func (h *OnLessonCompletedHandler) updateLeaderboard(
	ctx context.Context,
	event shared.LessonCompletedEvent,
) error {
	l, err := h.learnerRepo.GetByID(ctx, event.LearnerID)
	if err != nil {
		return fmt.Errorf("get learner: %w", err)
	}

	entry := learner.CoinEntry{
		LearnerID:   l.ID,
		DisplayName: l.DisplayName,
		Coins:       l.Coins,
	}

	if err := h.leaderboard.UpdateScore(ctx, entry); err != nil {
		return fmt.Errorf("update score: %w", err)
	}

	h.logger.Debug("coin leaderboard updated",
		"learner_id", l.ID,
		"coins", int64(l.Coins),
	)

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnLessonCompletedHandler) EventType() shared.EventType {
	return shared.EventLessonCompleted
}
