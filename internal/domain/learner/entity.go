// Package learner содержит доменную модель ученика платформы Lingo.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Coins представляет игровую валюту ученика.
type Coins int

// IsValid проверяет, что баланс неотрицательный.
func (c Coins) IsValid() bool {
	return c >= 0
}

// Add складывает монеты.
func (c Coins) Add(delta Coins) Coins {
	return c + delta
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrLevelAlreadySelected - ученик уже выбрал уровень.
	ErrLevelAlreadySelected = errors.New("level already selected")

	// ErrNoLevelSelected - ученик ещё не выбрал уровень.
	ErrNoLevelSelected = errors.New("no level selected")

	// ErrNegativeCoins - баланс монет не может стать отрицательным.
	ErrNegativeCoins = errors.New("coin balance cannot be negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// Learner - центральная сущность системы, представляющая ученика Lingo.
type Learner struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// DisplayName - отображаемое имя ученика.
	DisplayName string

	// CurrentLevel - текущий уровень обучения.
	// nil, пока ученик не выбрал стартовый уровень.
	CurrentLevel *level.Level

	// Coins - баланс игровой валюты.
	Coins Coins

	// Subscription - текущее состояние подписки.
	Subscription Subscription

	// CreatedAt - время регистрации.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewLearnerParams содержит параметры для создания нового ученика.
type NewLearnerParams struct {
	ID          string
	DisplayName string
}

// NewLearner создаёт нового ученика с валидацией всех полей.
// Новый ученик начинает без уровня, без монет и с бесплатной подпиской.
func NewLearner(params NewLearnerParams) (*Learner, error) {
	if params.ID == "" {
		return nil, errors.New("learner id is required")
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now().UTC()

	return &Learner{
		ID:           params.ID,
		DisplayName:  displayName,
		CurrentLevel: nil,
		Coins:        0,
		Subscription: FreeSubscription(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// HasLevel возвращает true, если ученик выбрал уровень.
func (l *Learner) HasLevel() bool {
	return l.CurrentLevel != nil
}

// SelectLevel устанавливает стартовый уровень ученика.
// Повторный выбор запрещён: смена уровня посреди прогресса
// исказила бы подсчёт повышения.
func (l *Learner) SelectLevel(lv level.Level) error {
	if l.CurrentLevel != nil {
		return ErrLevelAlreadySelected
	}

	l.CurrentLevel = &lv
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// PromoteTo переводит ученика на следующий уровень.
func (l *Learner) PromoteTo(lv level.Level) error {
	if l.CurrentLevel == nil {
		return ErrNoLevelSelected
	}

	l.CurrentLevel = &lv
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// AddCoins начисляет монеты и возвращает новый баланс.
func (l *Learner) AddCoins(delta Coins) (Coins, error) {
	newBalance := l.Coins.Add(delta)
	if !newBalance.IsValid() {
		return l.Coins, ErrNegativeCoins
	}

	l.Coins = newBalance
	l.UpdatedAt = time.Now().UTC()
	return l.Coins, nil
}

// String возвращает строковое представление ученика для логирования.
func (l *Learner) String() string {
	lvl := "none"
	if l.CurrentLevel != nil {
		lvl = l.CurrentLevel.String()
	}
	return fmt.Sprintf(
		"Learner{ID: %s, Level: %s, Coins: %d, Subscription: %s}",
		l.ID, lvl, l.Coins, l.Subscription.Status,
	)
}

// Clone создаёт глубокую копию ученика.
func (l *Learner) Clone() *Learner {
	if l == nil {
		return nil
	}

	clone := *l
	if l.CurrentLevel != nil {
		lv := *l.CurrentLevel
		clone.CurrentLevel = &lv
	}
	if l.Subscription.ExpiresAt != nil {
		exp := *l.Subscription.ExpiresAt
		clone.Subscription.ExpiresAt = &exp
	}
	return &clone
}
