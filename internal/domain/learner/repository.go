package learner

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для учеников.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create создаёт нового ученика.
	// Возвращает ошибку конфликта, если ученик уже существует.
	Create(ctx context.Context, l *Learner) error

	// GetByID возвращает ученика по внутреннему ID.
	// Возвращает ошибку "не найден", если ученика нет.
	GetByID(ctx context.Context, id string) (*Learner, error)

	// Update обновляет данные ученика.
	// Возвращает ошибку "не найден", если ученика нет.
	Update(ctx context.Context, l *Learner) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll возвращает всех учеников с пагинацией.
	GetAll(ctx context.Context, opts ListOptions) ([]*Learner, error)

	// GetByIDs возвращает учеников по списку ID.
	GetByIDs(ctx context.Context, ids []string) ([]*Learner, error)

	// Count возвращает общее количество учеников.
	Count(ctx context.Context) (int, error)

	// TopByCoins возвращает учеников с наибольшим балансом монет.
	TopByCoins(ctx context.Context, limit int) ([]CoinEntry, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists проверяет существование ученика по ID.
	Exists(ctx context.Context, id string) (bool, error)
}

// CoinEntry - строка рейтинга по монетам.
type CoinEntry struct {
	// LearnerID - идентификатор ученика.
	LearnerID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Coins - баланс монет.
	Coins Coins
}

// ListOptions содержит параметры для пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей.
	Limit int

	// SortBy - поле для сортировки.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "coins",
		SortDesc: true,
	}
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort устанавливает сортировку.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Для кеширования часто запрашиваемых данных (обычно реализуется через Redis).
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет операции кеширования данных учеников.
type Cache interface {
	// Get получает ученика из кеша.
	Get(ctx context.Context, learnerID string) (*Learner, error)

	// Set сохраняет ученика в кеш.
	Set(ctx context.Context, l *Learner, ttl time.Duration) error

	// Invalidate удаляет записи ученика из кеша.
	Invalidate(ctx context.Context, learnerID string) error
}
