package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates a learner account. New learners start with no level, zero coins
// and a free subscription; everything else is earned.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand contains the data to register a learner.
type RegisterLearnerCommand struct {
	// LearnerID is the internal ID to assign (a new UUID when empty).
	LearnerID string

	// DisplayName is the learner's display name.
	DisplayName string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if c.DisplayName == "" {
		return errors.New("register_learner: display_name is required")
	}
	return nil
}

// RegisterLearnerResult contains the result of registering a learner.
type RegisterLearnerResult struct {
	// LearnerID is the assigned internal ID.
	LearnerID string

	// DisplayName is the stored display name.
	DisplayName string

	// RegisteredAt is when the account was created.
	RegisteredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo    learner.Repository
	eventPublisher shared.EventPublisher
	logger         *logger.Logger
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RegisterLearnerHandler {
	if log == nil {
		log = logger.Default()
	}

	return &RegisterLearnerHandler{
		learnerRepo:    learnerRepo,
		eventPublisher: eventPublisher,
		logger:         log.With(logger.Component("register_learner")),
	}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_learner: validation failed: %w", err)
	}

	id := cmd.LearnerID
	if id == "" {
		id = uuid.NewString()
	}

	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:          id,
		DisplayName: cmd.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	if err := h.learnerRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	if h.eventPublisher != nil {
		event := shared.NewLearnerRegisteredEvent(l.ID, l.DisplayName)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", logger.Err(err))
		}
	}

	h.logger.Info("learner registered", logger.LearnerID(l.ID))

	return &RegisterLearnerResult{
		LearnerID:    l.ID,
		DisplayName:  l.DisplayName,
		RegisteredAt: l.CreatedAt,
	}, nil
}
