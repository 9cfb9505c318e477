package progression

import (
	"context"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONAL STORE
// Контракт для атомарного пути завершения урока. Все проверки и мутации
// выполняются внутри одной транзакции; реализация обязана повторить
// замыкание целиком при конфликте сериализации, чтобы проверки
// перечитали актуальное состояние.
// ══════════════════════════════════════════════════════════════════════════════

// Store выполняет замыкание в рамках одной транзакции.
type Store interface {
	// InTx открывает транзакцию, передаёт её замыканию и фиксирует
	// при отсутствии ошибки. Доменные ошибки не повторяются -
	// они откатывают транзакцию и возвращаются как есть.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx - операции, доступные внутри транзакции завершения урока.
type Tx interface {
	// GetLearnerForUpdate читает ученика с блокировкой строки.
	// Конкурирующие завершения того же ученика сериализуются здесь.
	GetLearnerForUpdate(ctx context.Context, learnerID string) (*learner.Learner, error)

	// GetLesson читает урок (включая удалённые - проверка статуса
	// остаётся за доменной логикой).
	GetLesson(ctx context.Context, lessonID string) (*lesson.Lesson, error)

	// CompletionExists проверяет, засчитан ли уже урок ученику.
	CompletionExists(ctx context.Context, learnerID, lessonID string) (bool, error)

	// InsertCompletion вставляет запись о завершении.
	// Уникальный индекс (learner_id, lesson_id) - страховка
	// от гонки двойного засчёта.
	InsertCompletion(ctx context.Context, c *Completion) error

	// UpdateLearner сохраняет изменённого ученика (монеты, уровень,
	// понижённая подписка).
	UpdateLearner(ctx context.Context, l *learner.Learner) error

	// CountPublishedLessons возвращает число опубликованных
	// неудалённых уроков уровня.
	CountPublishedLessons(ctx context.Context, lv level.Level) (int, error)

	// CountCompletions возвращает число завершений ученика среди
	// опубликованных неудалённых уроков уровня. Пересчёт выполняется
	// в той же транзакции, что и решение о повышении.
	CountCompletions(ctx context.Context, learnerID string, lv level.Level) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// READER
// Read-only операции для запросов прогресса и статистики.
// ══════════════════════════════════════════════════════════════════════════════

// Reader определяет read-only операции над записями о завершении.
type Reader interface {
	// CountByLevel возвращает число завершений ученика среди
	// опубликованных неудалённых уроков указанного уровня.
	CountByLevel(ctx context.Context, learnerID string, lv level.Level) (int, error)

	// ListCompletedLessonIDs возвращает ID завершённых учеником
	// уроков указанного уровня.
	ListCompletedLessonIDs(ctx context.Context, learnerID string, lv level.Level) ([]string, error)

	// TotalCompletions возвращает общее число завершений на платформе.
	TotalCompletions(ctx context.Context) (int, error)

	// TotalCoinsAwarded возвращает сумму монет, начисленных за уроки
	// (бонусы за повышение сюда не входят).
	TotalCoinsAwarded(ctx context.Context) (int, error)
}
