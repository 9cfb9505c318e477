package streak

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для работы с сериями.
type Repository interface {
	// GetByLearner возвращает серию ученика.
	// Возвращает ошибку "не найден", если записи ещё нет.
	GetByLearner(ctx context.Context, learnerID string) (*Streak, error)

	// Upsert сохраняет серию (вставка или обновление по learner_id).
	Upsert(ctx context.Context, s *Streak) error

	// TopCurrent возвращает рейтинг по текущей серии.
	// Участвуют только ученики с активностью сегодня или вчера -
	// устаревшие серии фактически нулевые и в рейтинг не попадают.
	// Сортировка: текущая серия, затем лучшая серия по убыванию.
	TopCurrent(ctx context.Context, now time.Time, limit int) ([]Entry, error)

	// TopLongest возвращает рейтинг по лучшей серии за всё время.
	// Свежесть активности роли не играет.
	// Сортировка: лучшая серия, затем общее число активных дней по убыванию.
	TopLongest(ctx context.Context, limit int) ([]Entry, error)
}

// Entry - строка рейтинга серий.
type Entry struct {
	// LearnerID - идентификатор ученика.
	LearnerID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// CurrentStreak - текущая серия.
	CurrentStreak int

	// LongestStreak - лучшая серия.
	LongestStreak int

	// TotalActiveDays - общее число активных дней.
	TotalActiveDays int

	// LastActivityDate - день последней активности.
	LastActivityDate time.Time
}
