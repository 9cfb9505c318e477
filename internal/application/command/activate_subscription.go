package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVATE SUBSCRIPTION COMMAND
// Applies a plan from the catalog to the learner. Payment processing
// happens upstream; this command records the entitlement. Re-activation
// replaces the current plan, the term restarts from the activation moment.
// ══════════════════════════════════════════════════════════════════════════════

// ActivateSubscriptionCommand contains the data to activate a plan.
type ActivateSubscriptionCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Plan is the catalog name of the plan: monthly, yearly or lifetime.
	Plan string

	// ActivatedAt is the activation moment (defaults to now if zero).
	ActivatedAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ActivateSubscriptionCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("activate_subscription: learner_id is required")
	}
	if c.Plan == "" {
		return errors.New("activate_subscription: plan is required")
	}
	return nil
}

// ActivateSubscriptionResult contains the result of activating a plan.
type ActivateSubscriptionResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Plan is the activated plan.
	Plan string

	// ExpiresAt is when the subscription expires (nil for lifetime).
	ExpiresAt *time.Time

	// ActivatedAt is when the plan took effect.
	ActivatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ActivateSubscriptionHandler handles the ActivateSubscriptionCommand.
type ActivateSubscriptionHandler struct {
	learnerRepo    learner.Repository
	eventPublisher shared.EventPublisher
	catalog        learner.PlanCatalog
	logger         *logger.Logger
}

// NewActivateSubscriptionHandler creates a new ActivateSubscriptionHandler.
func NewActivateSubscriptionHandler(
	learnerRepo learner.Repository,
	eventPublisher shared.EventPublisher,
	catalog learner.PlanCatalog,
	log *logger.Logger,
) *ActivateSubscriptionHandler {
	if log == nil {
		log = logger.Default()
	}

	return &ActivateSubscriptionHandler{
		learnerRepo:    learnerRepo,
		eventPublisher: eventPublisher,
		catalog:        catalog,
		logger:         log.With(logger.Component("activate_subscription")),
	}
}

// Handle executes the activate subscription command.
func (h *ActivateSubscriptionHandler) Handle(ctx context.Context, cmd ActivateSubscriptionCommand) (*ActivateSubscriptionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("activate_subscription: validation failed: %w", err)
	}

	plan, ok := h.catalog.ByName(learner.PlanName(cmd.Plan))
	if !ok {
		return nil, shared.ErrUnknownPlan.WithMeta(map[string]any{
			"plan":  cmd.Plan,
			"plans": h.catalog.All(),
		})
	}

	now := cmd.ActivatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return nil, err
	}

	l.ActivatePlan(plan, now)

	if err := h.learnerRepo.Update(ctx, l); err != nil {
		return nil, err
	}

	if h.eventPublisher != nil {
		event := shared.NewSubscriptionActivatedEvent(l.ID, string(plan.Name), l.Subscription.ExpiresAt)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", logger.Err(err))
		}
	}

	h.logger.Info("subscription activated",
		logger.LearnerID(l.ID),
		logger.PlanName(string(plan.Name)),
	)

	return &ActivateSubscriptionResult{
		LearnerID:   l.ID,
		Plan:        string(plan.Name),
		ExpiresAt:   l.Subscription.ExpiresAt,
		ActivatedAt: l.Subscription.ActivatedAt,
	}, nil
}
