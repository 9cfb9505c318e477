package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE SUBSCRIPTION QUERY
// Оценивает подписку ученика на момент запроса. Чтение ленивое:
// если срок истёк, ученик понижается до бесплатного плана прямо здесь,
// и понижение сохраняется. Отдельного фонового процесса нет - любой
// наблюдатель подписки и есть процесс её сверки.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateSubscriptionQuery содержит параметры оценки подписки.
type EvaluateSubscriptionQuery struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string

	// Now - момент оценки (по умолчанию текущее время).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *EvaluateSubscriptionQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	return nil
}

// PlanDTO - запись плана подписки в каталоге.
type PlanDTO struct {
	// Name - машинное имя плана.
	Name string `json:"name"`

	// DisplayName - отображаемое название.
	DisplayName string `json:"display_name"`

	// PriceCents - цена в центах.
	PriceCents int `json:"price_cents"`

	// DurationDays - длительность в днях (0 для бессрочных).
	DurationDays int `json:"duration_days"`

	// Lifetime - бессрочный ли план.
	Lifetime bool `json:"lifetime"`
}

// EvaluateSubscriptionResult содержит снимок подписки после сверки.
type EvaluateSubscriptionResult struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string `json:"learner_id"`

	// Status - статус подписки после сверки (free или premium).
	Status string `json:"status"`

	// Plan - действующий план (пусто для бесплатного статуса).
	Plan string `json:"plan,omitempty"`

	// ExpiresAt - срок действия (nil для бессрочных и бесплатных).
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// HasAccess - есть ли доступ к премиум-контенту прямо сейчас.
	HasAccess bool `json:"has_access"`

	// Downgraded - произошло ли понижение при этой оценке.
	Downgraded bool `json:"downgraded"`

	// ExpiredPlan - план, действие которого истекло (только при понижении).
	ExpiredPlan string `json:"expired_plan,omitempty"`

	// AvailablePlans - каталог планов для продления.
	AvailablePlans []PlanDTO `json:"available_plans"`

	// EvaluatedAt - момент оценки.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// EvaluateSubscriptionHandler обрабатывает запросы оценки подписки.
type EvaluateSubscriptionHandler struct {
	learnerRepo learner.Repository
	catalog     learner.PlanCatalog
	logger      *logger.Logger
}

// NewEvaluateSubscriptionHandler создаёт новый обработчик оценки подписки.
func NewEvaluateSubscriptionHandler(
	learnerRepo learner.Repository,
	catalog learner.PlanCatalog,
	log *logger.Logger,
) *EvaluateSubscriptionHandler {
	if log == nil {
		log = logger.Default()
	}

	return &EvaluateSubscriptionHandler{
		learnerRepo: learnerRepo,
		catalog:     catalog,
		logger:      log.With(logger.Component("evaluate_subscription")),
	}
}

// Handle выполняет оценку подписки.
func (h *EvaluateSubscriptionHandler) Handle(ctx context.Context, query EvaluateSubscriptionQuery) (*EvaluateSubscriptionResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "EvaluateSubscription", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	l, err := h.learnerRepo.GetByID(ctx, query.LearnerID)
	if err != nil {
		return nil, err
	}

	decision := l.ReconcileSubscription(now)
	if decision.Downgraded {
		if err := h.learnerRepo.Update(ctx, l); err != nil {
			h.logger.Warn("failed to persist lazy downgrade",
				logger.LearnerID(l.ID),
				logger.Err(err),
			)
		} else {
			h.logger.Info("subscription downgraded on read",
				logger.LearnerID(l.ID),
				logger.PlanName(string(decision.ExpiredPlan)),
			)
		}
	}

	result := &EvaluateSubscriptionResult{
		LearnerID:   l.ID,
		Status:      string(decision.Snapshot.Status),
		Plan:        string(decision.Snapshot.Plan),
		HasAccess:   decision.HasAccess,
		Downgraded:  decision.Downgraded,
		ExpiredPlan: string(decision.ExpiredPlan),
		EvaluatedAt: now,
	}
	if decision.Snapshot.ExpiresAt != nil {
		t := *decision.Snapshot.ExpiresAt
		result.ExpiresAt = &t
	}

	for _, p := range h.catalog.All() {
		result.AvailablePlans = append(result.AvailablePlans, PlanDTO{
			Name:         string(p.Name),
			DisplayName:  p.DisplayName,
			PriceCents:   p.PriceCents,
			DurationDays: p.DurationDays,
			Lifetime:     p.IsLifetime(),
		})
	}

	return result, nil
}
