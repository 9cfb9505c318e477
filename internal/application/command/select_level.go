package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SELECT LEVEL COMMAND
// Sets the learner's starting level. One-shot: progress within a level is
// counted against that level, so switching mid-level is not allowed.
// ══════════════════════════════════════════════════════════════════════════════

// SelectLevelCommand contains the data to select a starting level.
type SelectLevelCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Level is the CEFR code of the chosen level, e.g. "A1".
	Level string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SelectLevelCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("select_level: learner_id is required")
	}
	if c.Level == "" {
		return errors.New("select_level: level is required")
	}
	return nil
}

// SelectLevelResult contains the result of selecting a level.
type SelectLevelResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Level is the selected level.
	Level string

	// IsPremium indicates the selected level holds premium content.
	// Selection itself is free; the payment gate applies to completions.
	IsPremium bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SelectLevelHandler handles the SelectLevelCommand.
type SelectLevelHandler struct {
	learnerRepo    learner.Repository
	eventPublisher shared.EventPublisher
	hierarchy      level.Hierarchy
	logger         *logger.Logger
}

// NewSelectLevelHandler creates a new SelectLevelHandler.
func NewSelectLevelHandler(
	learnerRepo learner.Repository,
	eventPublisher shared.EventPublisher,
	hierarchy level.Hierarchy,
	log *logger.Logger,
) *SelectLevelHandler {
	if log == nil {
		log = logger.Default()
	}

	return &SelectLevelHandler{
		learnerRepo:    learnerRepo,
		eventPublisher: eventPublisher,
		hierarchy:      hierarchy,
		logger:         log.With(logger.Component("select_level")),
	}
}

// Handle executes the select level command.
func (h *SelectLevelHandler) Handle(ctx context.Context, cmd SelectLevelCommand) (*SelectLevelResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("select_level: validation failed: %w", err)
	}

	lv := level.Level(cmd.Level)
	if !h.hierarchy.Contains(lv) {
		return nil, shared.ErrUnknownLevel.WithMeta(map[string]any{
			"level":  cmd.Level,
			"levels": h.hierarchy.Levels(),
		})
	}

	l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return nil, err
	}

	if err := l.SelectLevel(lv); err != nil {
		if errors.Is(err, learner.ErrLevelAlreadySelected) {
			return nil, shared.ErrLevelAlreadySelected.WithMeta(map[string]any{
				"current_level": l.CurrentLevel.String(),
			})
		}
		return nil, err
	}

	if err := h.learnerRepo.Update(ctx, l); err != nil {
		return nil, err
	}

	if h.eventPublisher != nil {
		event := shared.NewLevelSelectedEvent(cmd.LearnerID, lv.String())
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", logger.Err(err))
		}
	}

	h.logger.Info("level selected",
		logger.LearnerID(cmd.LearnerID),
		logger.LevelName(lv.String()),
	)

	return &SelectLevelResult{
		LearnerID: cmd.LearnerID,
		Level:     lv.String(),
		IsPremium: h.hierarchy.IsPremium(lv),
	}, nil
}
