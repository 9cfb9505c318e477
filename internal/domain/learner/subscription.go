package learner

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTION
// ══════════════════════════════════════════════════════════════════════════════

// SubscriptionStatus определяет статус подписки ученика.
type SubscriptionStatus string

const (
	// SubscriptionFree - бесплатный доступ (только базовые уровни).
	SubscriptionFree SubscriptionStatus = "free"
	// SubscriptionPremium - активная премиум-подписка.
	SubscriptionPremium SubscriptionStatus = "premium"
)

// IsValid проверяет, что статус корректен.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionFree, SubscriptionPremium:
		return true
	default:
		return false
	}
}

// Subscription представляет состояние подписки ученика.
// Инварианты: план lifetime не имеет срока истечения;
// премиум-статус всегда привязан к конкретному плану.
type Subscription struct {
	// Status - текущий статус подписки.
	Status SubscriptionStatus

	// Plan - название активного плана (пусто для бесплатного статуса).
	Plan PlanName

	// ExpiresAt - момент истечения подписки.
	// nil для бесплатного статуса и плана lifetime.
	ExpiresAt *time.Time

	// ActivatedAt - время активации текущего плана.
	ActivatedAt time.Time
}

// Доменные ошибки подписки.
var (
	// ErrPlanWithoutStatus - план указан без премиум-статуса.
	ErrPlanWithoutStatus = errors.New("subscription plan set without premium status")

	// ErrPremiumWithoutPlan - премиум-статус без плана.
	ErrPremiumWithoutPlan = errors.New("premium subscription must reference a plan")

	// ErrLifetimeWithExpiry - lifetime-план не может иметь срок истечения.
	ErrLifetimeWithExpiry = errors.New("lifetime plan must not have expiry")
)

// FreeSubscription возвращает бесплатную подписку.
func FreeSubscription() Subscription {
	return Subscription{
		Status:    SubscriptionFree,
		Plan:      "",
		ExpiresAt: nil,
	}
}

// Validate проверяет инварианты подписки.
func (s Subscription) Validate() error {
	if !s.Status.IsValid() {
		return errors.New("invalid subscription status")
	}
	if s.Status == SubscriptionPremium && s.Plan == "" {
		return ErrPremiumWithoutPlan
	}
	if s.Status == SubscriptionFree && s.Plan != "" {
		return ErrPlanWithoutStatus
	}
	if s.Plan == PlanLifetime && s.ExpiresAt != nil {
		return ErrLifetimeWithExpiry
	}
	return nil
}

// IsLifetime возвращает true для пожизненной подписки.
func (s Subscription) IsLifetime() bool {
	return s.Status == SubscriptionPremium && s.Plan == PlanLifetime
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCESS DECISION (ленивое понижение)
// ══════════════════════════════════════════════════════════════════════════════

// AccessDecision - результат сверки подписки с текущим моментом.
type AccessDecision struct {
	// HasAccess - действует ли премиум-доступ прямо сейчас.
	HasAccess bool

	// Downgraded - была ли подписка понижена в ходе этой сверки.
	// Наблюдатель обязан сохранить исправленную запись в том же пути.
	Downgraded bool

	// ExpiredPlan - план, действовавший до понижения (пусто без понижения).
	ExpiredPlan PlanName

	// ExpiredAt - момент истечения понижённого плана.
	ExpiredAt time.Time

	// Snapshot - состояние подписки после сверки.
	Snapshot Subscription
}

// ReconcileSubscription сверяет подписку с текущим моментом и при
// необходимости выполняет ленивое понижение до бесплатного статуса.
// Никакого фонового планировщика нет: истёкшая подписка исправляется
// первым же путём чтения или записи, который её наблюдает.
func (l *Learner) ReconcileSubscription(now time.Time) AccessDecision {
	sub := l.Subscription

	// Бесплатный статус - сверять нечего.
	if sub.Status != SubscriptionPremium {
		return AccessDecision{HasAccess: false, Snapshot: sub}
	}

	// Lifetime не истекает никогда.
	if sub.IsLifetime() {
		return AccessDecision{HasAccess: true, Snapshot: sub}
	}

	// Премиум без срока трактуем как действующий: такую запись могла
	// оставить только ручная правка, и доступ важнее строгости.
	if sub.ExpiresAt == nil {
		return AccessDecision{HasAccess: true, Snapshot: sub}
	}

	// Доступ действует до момента истечения включительно: подписка
	// истекает строго после ExpiresAt, а не в сам этот момент.
	if !now.After(*sub.ExpiresAt) {
		return AccessDecision{HasAccess: true, Snapshot: sub}
	}

	// Подписка истекла - понижаем на месте.
	expiredPlan := sub.Plan
	expiredAt := *sub.ExpiresAt

	l.Subscription = FreeSubscription()
	l.UpdatedAt = time.Now().UTC()

	return AccessDecision{
		HasAccess:   false,
		Downgraded:  true,
		ExpiredPlan: expiredPlan,
		ExpiredAt:   expiredAt,
		Snapshot:    l.Subscription,
	}
}

// ActivatePlan применяет план из каталога к ученику.
// Срок вычисляется от момента активации; для lifetime срок отсутствует.
// Повторная активация заменяет текущий план (продление начинается заново).
func (l *Learner) ActivatePlan(plan PlanInfo, now time.Time) {
	sub := Subscription{
		Status:      SubscriptionPremium,
		Plan:        plan.Name,
		ActivatedAt: now.UTC(),
	}

	if !plan.IsLifetime() {
		expiresAt := now.UTC().AddDate(0, 0, plan.DurationDays)
		sub.ExpiresAt = &expiresAt
	}

	l.Subscription = sub
	l.UpdatedAt = time.Now().UTC()
}
