package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Records a learner's daily activity for streak purposes without a lesson
// completion: vocabulary reviews, listening practice, a daily login.
// Lesson completions record activity on their own path.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains the data to record an activity.
type RecordActivityCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Timestamp is when the activity occurred (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("record_activity: learner_id is required")
	}
	return nil
}

// RecordActivityResult contains the result of recording an activity.
type RecordActivityResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Changed indicates the streak record was updated
	// (false for repeated activity on the same day).
	Changed bool

	// Extended indicates the streak grew.
	Extended bool

	// Broken indicates the streak restarted after missed days.
	Broken bool

	// PreviousStreak is the streak length before it broke (0 otherwise).
	PreviousStreak int

	// CurrentStreak is the streak after recording.
	CurrentStreak int

	// LongestStreak is the all-time best streak.
	LongestStreak int

	// TotalActiveDays is the total number of active days.
	TotalActiveDays int

	// RecordedAt is when the activity was recorded.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	streakRepo     streak.Repository
	learnerRepo    learnerExistenceChecker
	eventPublisher shared.EventPublisher
	logger         *logger.Logger
}

// learnerExistenceChecker is the slice of learner.Repository this handler needs.
type learnerExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(
	streakRepo streak.Repository,
	learnerRepo learnerExistenceChecker,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RecordActivityHandler {
	if log == nil {
		log = logger.Default()
	}

	return &RecordActivityHandler{
		streakRepo:     streakRepo,
		learnerRepo:    learnerRepo,
		eventPublisher: eventPublisher,
		logger:         log.With(logger.Component("record_activity")),
	}
}

// Handle executes the record activity command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_activity: validation failed: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	exists, err := h.learnerRepo.Exists(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("record_activity: failed to check learner: %w", err)
	}
	if !exists {
		return nil, shared.ErrLearnerNotFound
	}

	s, err := h.streakRepo.GetByLearner(ctx, cmd.LearnerID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("record_activity: failed to get streak: %w", err)
		}
		s, err = streak.NewStreak(cmd.LearnerID)
		if err != nil {
			return nil, err
		}
	}

	outcome := s.RecordActivity(now)

	if outcome.Changed {
		if err := h.streakRepo.Upsert(ctx, s); err != nil {
			return nil, fmt.Errorf("record_activity: failed to save streak: %w", err)
		}
	}

	h.publishEvents(cmd, s, outcome)

	return &RecordActivityResult{
		LearnerID:       cmd.LearnerID,
		Changed:         outcome.Changed,
		Extended:        outcome.Extended,
		Broken:          outcome.Broken,
		PreviousStreak:  outcome.PreviousStreak,
		CurrentStreak:   s.DisplayedCurrent(now),
		LongestStreak:   s.LongestStreak,
		TotalActiveDays: s.TotalActiveDays,
		RecordedAt:      now,
	}, nil
}

// publishEvents emits streak events. Best effort: the record is saved.
func (h *RecordActivityHandler) publishEvents(cmd RecordActivityCommand, s *streak.Streak, outcome streak.Outcome) {
	if h.eventPublisher == nil || !outcome.Changed {
		return
	}

	var event shared.Event
	switch {
	case outcome.Broken:
		event = shared.NewStreakBrokenEvent(cmd.LearnerID, outcome.PreviousStreak, outcome.DaysMissed)
	case outcome.Extended:
		event = shared.NewStreakExtendedEvent(cmd.LearnerID, s.CurrentStreak, s.LongestStreak)
	default:
		return
	}

	if err := h.eventPublisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish streak event",
			logger.LearnerID(cmd.LearnerID),
			logger.Err(err),
		)
	}
}
