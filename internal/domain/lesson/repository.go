package lesson

import (
	"context"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для работы с уроками.
type Repository interface {
	// Create создаёт новый урок.
	Create(ctx context.Context, l *Lesson) error

	// GetByID возвращает урок по ID (включая удалённые).
	// Возвращает ошибку "не найден", если урока нет.
	GetByID(ctx context.Context, id string) (*Lesson, error)

	// Update обновляет данные урока.
	Update(ctx context.Context, l *Lesson) error

	// ListPublishedByLevel возвращает опубликованные неудалённые уроки
	// уровня, упорядоченные по позиции.
	ListPublishedByLevel(ctx context.Context, lv level.Level) ([]*Lesson, error)

	// CountPublishedByLevel возвращает количество опубликованных
	// неудалённых уроков уровня. Используется в подсчёте повышения.
	CountPublishedByLevel(ctx context.Context, lv level.Level) (int, error)
}
