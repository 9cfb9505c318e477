// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// The central write path of the engine. Runs every gate check and every
// mutation (completion record, coin award, promotion recount) inside one
// transaction, then applies best-effort side effects (streak, events)
// after the commit.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to complete a lesson.
type CompleteLessonCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// LessonID is the ID of the lesson being completed.
	LessonID string

	// CompletedAt is when the completion occurred (defaults to now if zero).
	CompletedAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("complete_lesson: learner_id is required")
	}
	if c.LessonID == "" {
		return errors.New("complete_lesson: lesson_id is required")
	}
	return nil
}

// PromotionInfo describes a level promotion that happened during completion.
type PromotionInfo struct {
	// Promoted indicates whether the learner advanced to the next level.
	Promoted bool

	// OldLevel is the level the learner completed.
	OldLevel string

	// NewLevel is the level the learner advanced to.
	NewLevel string

	// Bonus is the coin bonus awarded for the promotion.
	Bonus int
}

// CompleteLessonResult contains the result of completing a lesson.
type CompleteLessonResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// LessonID is the completed lesson.
	LessonID string

	// AwardedCoins is the total coins awarded by this completion,
	// including the promotion bonus when one applies.
	AwardedCoins int

	// NewCoinBalance is the learner's balance after the award.
	NewCoinBalance int

	// Progress is the learner's progress within the completed level,
	// in "completed/total" form.
	Progress string

	// Promotion describes the level promotion, if any.
	Promotion PromotionInfo

	// StreakExtended indicates the daily streak grew with this completion.
	StreakExtended bool

	// StreakBroken indicates the streak restarted after missed days.
	StreakBroken bool

	// CurrentStreak is the streak after recording this activity.
	CurrentStreak int

	// SubscriptionDowngraded indicates an expired subscription was
	// lazily downgraded on this path.
	SubscriptionDowngraded bool

	// CompletedAt is when the completion was recorded.
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	store          progression.Store
	streakRepo     streak.Repository
	eventPublisher shared.EventPublisher
	hierarchy      level.Hierarchy
	catalog        learner.PlanCatalog
	rewards        progression.Rewards
	logger         *logger.Logger
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	store progression.Store,
	streakRepo streak.Repository,
	eventPublisher shared.EventPublisher,
	hierarchy level.Hierarchy,
	catalog learner.PlanCatalog,
	rewards progression.Rewards,
	log *logger.Logger,
) *CompleteLessonHandler {
	if log == nil {
		log = logger.Default()
	}

	return &CompleteLessonHandler{
		store:          store,
		streakRepo:     streakRepo,
		eventPublisher: eventPublisher,
		hierarchy:      hierarchy,
		catalog:        catalog,
		rewards:        rewards,
		logger:         log.With(logger.Component("complete_lesson")),
	}
}

// Handle executes the complete lesson command.
//
// All gates and mutations run inside one transaction with the learner row
// locked, so two concurrent completions of the same lesson cannot both be
// credited. Gate failures roll the transaction back and are returned as-is;
// a rolled-back lazy downgrade is harmless because the next path that
// observes the expired subscription re-applies it.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_lesson: validation failed: %w", err)
	}

	now := cmd.CompletedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// State captured from inside the transaction for post-commit effects.
	var (
		decision  learner.AccessDecision
		progress  progression.Progress
		promotion PromotionInfo
		awarded   int
		balance   learner.Coins
		lessonLvl level.Level
	)

	err := h.store.InTx(ctx, func(ctx context.Context, tx progression.Tx) error {
		l, err := tx.GetLearnerForUpdate(ctx, cmd.LearnerID)
		if err != nil {
			return err
		}

		// Lazy subscription reconciliation. The corrected record is
		// persisted by the UpdateLearner at the end of this closure.
		decision = l.ReconcileSubscription(now)

		// Gate 1: the learner must have selected a level.
		if !l.HasLevel() {
			return shared.ErrLevelNotSelected
		}
		current := *l.CurrentLevel

		// Gate 2: the lesson must exist and be published.
		lsn, err := tx.GetLesson(ctx, cmd.LessonID)
		if err != nil {
			return err
		}
		if !lsn.IsPublished() {
			return shared.ErrLessonNotPublished
		}
		lessonLvl = lsn.Level

		// Gate 3: premium-classified content requires an active
		// subscription, regardless of level rank.
		if h.hierarchy.IsPremium(lsn.Level) && !decision.HasAccess {
			return shared.ErrPremiumRequired.WithMeta(map[string]any{
				"level": lsn.Level.String(),
				"plans": h.catalog.All(),
			})
		}

		// Gate 4: progressive unlock. Free access stops at the learner's
		// current level; lessons below it stay completable. Premium access
		// bypasses the rank check entirely.
		if !decision.HasAccess && h.hierarchy.Rank(lsn.Level) > h.hierarchy.Rank(current) {
			return shared.ErrLessonLocked.WithMeta(map[string]any{
				"lesson_level":  lsn.Level.String(),
				"learner_level": current.String(),
			})
		}

		// Gate 5: the lesson must not already be credited.
		exists, err := tx.CompletionExists(ctx, cmd.LearnerID, cmd.LessonID)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrLessonAlreadyComplete
		}

		// The record carries the lesson's own level, not the learner's:
		// below-level completions must count toward their own level.
		completion, err := progression.NewCompletion(
			uuid.NewString(),
			cmd.LearnerID,
			cmd.LessonID,
			lsn.Level,
			h.rewards.LessonCoins,
			now,
		)
		if err != nil {
			return err
		}
		if err := tx.InsertCompletion(ctx, completion); err != nil {
			return err
		}

		if _, err := l.AddCoins(learner.Coins(h.rewards.LessonCoins)); err != nil {
			return err
		}
		awarded = h.rewards.LessonCoins

		// Promotion recount runs in this same transaction, so the
		// decision always reflects the catalog as of the commit.
		total, err := tx.CountPublishedLessons(ctx, current)
		if err != nil {
			return err
		}
		completed, err := tx.CountCompletions(ctx, cmd.LearnerID, current)
		if err != nil {
			return err
		}
		progress = progression.Progress{Completed: completed, Total: total}

		promotion = PromotionInfo{}
		if progress.IsLevelComplete() {
			if next, ok := h.hierarchy.Next(current); ok {
				if err := l.PromoteTo(next); err != nil {
					return err
				}
				if _, err := l.AddCoins(learner.Coins(h.rewards.PromotionBonus)); err != nil {
					return err
				}
				awarded += h.rewards.PromotionBonus
				promotion = PromotionInfo{
					Promoted: true,
					OldLevel: current.String(),
					NewLevel: next.String(),
					Bonus:    h.rewards.PromotionBonus,
				}
			}
		}

		if err := tx.UpdateLearner(ctx, l); err != nil {
			return err
		}

		balance = l.Coins
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CompleteLessonResult{
		LearnerID:              cmd.LearnerID,
		LessonID:               cmd.LessonID,
		AwardedCoins:           awarded,
		NewCoinBalance:         int(balance),
		Progress:               progress.String(),
		Promotion:              promotion,
		SubscriptionDowngraded: decision.Downgraded,
		CompletedAt:            now,
	}

	// Post-commit side effects. The completion is already durable,
	// so failures here are logged and never surface to the caller.
	outcome, longest := h.recordStreak(ctx, cmd.LearnerID, now, result)
	h.publishEvents(cmd, result, decision, lessonLvl, outcome, longest, now)

	h.logger.Info("lesson completed",
		logger.LearnerID(cmd.LearnerID),
		logger.LessonID(cmd.LessonID),
		logger.CoinAmount(awarded),
		logger.Bool("promoted", promotion.Promoted),
		logger.String("progress", result.Progress),
	)

	return result, nil
}

// recordStreak applies the completion as daily activity on the streak tracker.
func (h *CompleteLessonHandler) recordStreak(ctx context.Context, learnerID string, now time.Time, result *CompleteLessonResult) (streak.Outcome, int) {
	s, err := h.streakRepo.GetByLearner(ctx, learnerID)
	if err != nil {
		if !shared.IsNotFound(err) {
			h.logger.Error("failed to load streak", logger.LearnerID(learnerID), logger.Err(err))
			return streak.Outcome{}, 0
		}
		s, err = streak.NewStreak(learnerID)
		if err != nil {
			h.logger.Error("failed to create streak", logger.LearnerID(learnerID), logger.Err(err))
			return streak.Outcome{}, 0
		}
	}

	outcome := s.RecordActivity(now)
	if outcome.Changed {
		if err := h.streakRepo.Upsert(ctx, s); err != nil {
			h.logger.Error("failed to save streak", logger.LearnerID(learnerID), logger.Err(err))
			return streak.Outcome{}, 0
		}
	}

	result.StreakExtended = outcome.Extended
	result.StreakBroken = outcome.Broken
	result.CurrentStreak = s.DisplayedCurrent(now)

	return outcome, s.LongestStreak
}

// publishEvents emits the domain events produced by this completion.
func (h *CompleteLessonHandler) publishEvents(
	cmd CompleteLessonCommand,
	result *CompleteLessonResult,
	decision learner.AccessDecision,
	lessonLvl level.Level,
	outcome streak.Outcome,
	longestStreak int,
	now time.Time,
) {
	if h.eventPublisher == nil {
		return
	}

	events := make([]shared.Event, 0, 4)

	completedEvent := shared.NewLessonCompletedEvent(
		cmd.LearnerID, cmd.LessonID, lessonLvl.String(),
		result.AwardedCoins, result.NewCoinBalance,
	)
	if cmd.CorrelationID != "" {
		completedEvent.BaseEvent = completedEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	events = append(events, completedEvent)

	if result.Promotion.Promoted {
		events = append(events, shared.NewLearnerPromotedEvent(
			cmd.LearnerID,
			result.Promotion.OldLevel,
			result.Promotion.NewLevel,
			result.Promotion.Bonus,
		))
	}

	if decision.Downgraded {
		events = append(events, shared.NewSubscriptionDowngradedEvent(
			cmd.LearnerID,
			string(decision.ExpiredPlan),
			decision.ExpiredAt,
			now,
		))
	}

	switch {
	case outcome.Broken:
		events = append(events, shared.NewStreakBrokenEvent(cmd.LearnerID, outcome.PreviousStreak, outcome.DaysMissed))
	case outcome.Extended:
		events = append(events, shared.NewStreakExtendedEvent(cmd.LearnerID, result.CurrentStreak, longestStreak))
	}

	for _, event := range events {
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}
}
