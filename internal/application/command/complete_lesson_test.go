package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

type completeLessonFixture struct {
	handler    *CompleteLessonHandler
	store      *fakeStore
	streakRepo *fakeStreakRepo
	publisher  *fakePublisher
}

func newCompleteLessonFixture(t *testing.T) *completeLessonFixture {
	t.Helper()

	store := newFakeStore()
	streakRepo := newFakeStreakRepo()
	publisher := &fakePublisher{}

	handler := NewCompleteLessonHandler(
		store,
		streakRepo,
		publisher,
		level.Default(),
		learner.DefaultPlanCatalog(),
		progression.DefaultRewards(),
		nil,
	)

	return &completeLessonFixture{
		handler:    handler,
		store:      store,
		streakRepo: streakRepo,
		publisher:  publisher,
	}
}

func (f *completeLessonFixture) addLearner(t *testing.T, id string, lv level.Level) *learner.Learner {
	t.Helper()

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: id, DisplayName: "Learner " + id})
	require.NoError(t, err)
	if lv != "" {
		require.NoError(t, l.SelectLevel(lv))
	}
	f.store.putLearner(l)
	return l
}

func (f *completeLessonFixture) addPublishedLesson(t *testing.T, id string, lv level.Level, position int) {
	t.Helper()

	lsn, err := lesson.NewLesson(lesson.NewLessonParams{ID: id, Title: "Lesson " + id, Level: lv, Position: position})
	require.NoError(t, err)
	lsn.Publish()
	f.store.putLesson(lsn)
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestCompleteLesson_AwardsCoinsAndProgress(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "a1-2", level.A1, 2)
	f.addPublishedLesson(t, "a1-3", level.A1, 3)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID:   "l1",
		LessonID:    "a1-1",
		CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.AwardedCoins)
	assert.Equal(t, 10, result.NewCoinBalance)
	assert.Equal(t, "1/3", result.Progress)
	assert.False(t, result.Promotion.Promoted)
	assert.True(t, result.StreakExtended)
	assert.Equal(t, 1, result.CurrentStreak)

	stored := f.store.learnerByID("l1")
	assert.Equal(t, learner.Coins(10), stored.Coins)
	assert.Equal(t, level.A1, *stored.CurrentLevel)

	events := f.publisher.published(shared.EventLessonCompleted)
	require.Len(t, events, 1)
}

func TestCompleteLesson_DuplicateIsRejected(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "a1-2", level.A1, 2)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	_, err = f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 2),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLessonAlreadyComplete))
	assert.True(t, shared.IsConflict(err))

	// No double crediting.
	assert.Equal(t, 1, f.store.completionCount("l1"))
	assert.Equal(t, learner.Coins(10), f.store.learnerByID("l1").Coins)
}

func TestCompleteLesson_PromotionOnLastLesson(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "a1-2", level.A1, 2)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-2", CompletedAt: at(2025, 6, 2),
	})
	require.NoError(t, err)

	assert.True(t, result.Promotion.Promoted)
	assert.Equal(t, "A1", result.Promotion.OldLevel)
	assert.Equal(t, "A2", result.Promotion.NewLevel)
	assert.Equal(t, 50, result.Promotion.Bonus)
	// 10 for the lesson + 50 promotion bonus; balance was 10 before.
	assert.Equal(t, 60, result.AwardedCoins)
	assert.Equal(t, 70, result.NewCoinBalance)

	stored := f.store.learnerByID("l1")
	assert.Equal(t, level.A2, *stored.CurrentLevel)
	assert.Equal(t, learner.Coins(70), stored.Coins)

	promoted := f.publisher.published(shared.EventLearnerPromoted)
	require.Len(t, promoted, 1)
}

func TestCompleteLesson_NoPromotionAtHighestLevel(t *testing.T) {
	f := newCompleteLessonFixture(t)
	l := f.addLearner(t, "l1", level.C2)
	plan, ok := learner.DefaultPlanCatalog().ByName(learner.PlanLifetime)
	require.True(t, ok)
	l.ActivatePlan(plan, at(2025, 6, 1))
	f.store.putLearner(l)

	f.addPublishedLesson(t, "c2-1", level.C2, 1)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "c2-1", CompletedAt: at(2025, 6, 2),
	})
	require.NoError(t, err)

	assert.False(t, result.Promotion.Promoted)
	assert.Equal(t, 10, result.AwardedCoins)
	assert.Equal(t, level.C2, *f.store.learnerByID("l1").CurrentLevel)
}

func TestCompleteLesson_GateNoLevelSelected(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", "")
	f.addPublishedLesson(t, "a1-1", level.A1, 1)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLevelNotSelected))
	assert.True(t, shared.IsPreconditionFailed(err))
}

func TestCompleteLesson_GateLessonNotFound(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "missing",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteLesson_GateLessonNotPublished(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)

	draft, err := lesson.NewLesson(lesson.NewLessonParams{ID: "a1-draft", Title: "Draft", Level: level.A1, Position: 1})
	require.NoError(t, err)
	f.store.putLesson(draft)

	_, err = f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-draft",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLessonNotPublished))
}

func TestCompleteLesson_GateLessonAboveLevel(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "a2-1", level.A2, 1)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a2-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLessonLocked))
	assert.True(t, shared.IsForbidden(err))

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "A2", domainErr.Meta["lesson_level"])
	assert.Equal(t, "A1", domainErr.Meta["learner_level"])

	assert.Equal(t, 0, f.store.completionCount("l1"))
	assert.Equal(t, learner.Coins(0), f.store.learnerByID("l1").Coins)
}

func TestCompleteLesson_BelowLevelLessonSucceeds(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.B1)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "b1-1", level.B1, 1)

	// Progressive unlock restricts upward only; revisiting an earlier
	// level is always allowed.
	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.AwardedCoins)
	// The completion belongs to A1, so B1 promotion counting is untouched.
	assert.Equal(t, "0/1", result.Progress)
	assert.False(t, result.Promotion.Promoted)
	assert.Equal(t, level.B1, *f.store.learnerByID("l1").CurrentLevel)
}

func TestCompleteLesson_PremiumBypassesUnlock(t *testing.T) {
	f := newCompleteLessonFixture(t)
	l := f.addLearner(t, "l1", level.A1)
	plan, ok := learner.DefaultPlanCatalog().ByName(learner.PlanLifetime)
	require.True(t, ok)
	l.ActivatePlan(plan, at(2025, 6, 1))
	f.store.putLearner(l)

	f.addPublishedLesson(t, "c2-1", level.C2, 1)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "c2-1", CompletedAt: at(2025, 6, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.AwardedCoins)
	assert.Equal(t, 1, f.store.completionCount("l1"))
	// The learner stays at their own level; only access was bypassed.
	assert.Equal(t, level.A1, *f.store.learnerByID("l1").CurrentLevel)
}

func TestCompleteLesson_PremiumRequiredRegardlessOfRank(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "b2-1", level.B2, 1)

	// The payment gate fires before the rank check ever applies.
	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "b2-1",
	})
	require.Error(t, err)
	assert.True(t, shared.IsPaymentRequired(err))
	assert.False(t, shared.IsForbidden(err))
	assert.Equal(t, 0, f.store.completionCount("l1"))
}

func TestCompleteLesson_GatePremiumRequired(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.B2)
	f.addPublishedLesson(t, "b2-1", level.B2, 1)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "b2-1",
	})
	require.Error(t, err)
	assert.True(t, shared.IsPaymentRequired(err))

	// The payment gate carries the plan catalog for the caller.
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Contains(t, domainErr.Meta, "plans")

	assert.Equal(t, 0, f.store.completionCount("l1"))
}

func TestCompleteLesson_ExpiredSubscriptionBlocksPremium(t *testing.T) {
	f := newCompleteLessonFixture(t)
	l := f.addLearner(t, "l1", level.B2)
	plan, ok := learner.DefaultPlanCatalog().ByName(learner.PlanMonthly)
	require.True(t, ok)
	l.ActivatePlan(plan, at(2025, 1, 1)) // expires long before the completion
	f.store.putLearner(l)

	f.addPublishedLesson(t, "b2-1", level.B2, 1)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "b2-1", CompletedAt: at(2025, 6, 1),
	})
	require.Error(t, err)
	assert.True(t, shared.IsPaymentRequired(err))

	// The transaction rolled back, so the downgrade was not persisted.
	// The next path that observes the expired subscription re-applies it.
	stored := f.store.learnerByID("l1")
	assert.Equal(t, learner.SubscriptionPremium, stored.Subscription.Status)
}

func TestCompleteLesson_LazyDowngradeOnFreeLevelPersists(t *testing.T) {
	f := newCompleteLessonFixture(t)
	l := f.addLearner(t, "l1", level.A1)
	plan, ok := learner.DefaultPlanCatalog().ByName(learner.PlanMonthly)
	require.True(t, ok)
	l.ActivatePlan(plan, at(2025, 1, 1))
	f.store.putLearner(l)

	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "a1-2", level.A1, 2)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.True(t, result.SubscriptionDowngraded)

	stored := f.store.learnerByID("l1")
	assert.Equal(t, learner.SubscriptionFree, stored.Subscription.Status)

	downgraded := f.publisher.published(shared.EventSubscriptionDowngraded)
	require.Len(t, downgraded, 1)
}

func TestCompleteLesson_StreakAcrossDays(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "a1-2", level.A1, 2)
	f.addPublishedLesson(t, "a1-3", level.A1, 3)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-2", CompletedAt: at(2025, 6, 2),
	})
	require.NoError(t, err)
	assert.True(t, result.StreakExtended)
	assert.Equal(t, 2, result.CurrentStreak)

	// Missed days break the streak.
	result, err = f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-3", CompletedAt: at(2025, 6, 10),
	})
	require.NoError(t, err)
	assert.True(t, result.StreakBroken)
	assert.Equal(t, 1, result.CurrentStreak)

	broken := f.publisher.published(shared.EventStreakBroken)
	require.Len(t, broken, 1)
}

func TestCompleteLesson_StreakFailureDoesNotFailResult(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addLearner(t, "l1", level.A1)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)
	f.addPublishedLesson(t, "a1-2", level.A1, 2)
	f.streakRepo.failGet = errors.New("redis down")

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "l1", LessonID: "a1-1", CompletedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	// The completion is credited; only the streak update was lost.
	assert.Equal(t, 10, result.AwardedCoins)
	assert.False(t, result.StreakExtended)
	assert.Equal(t, 0, result.CurrentStreak)
}

func TestCompleteLesson_ValidationErrors(t *testing.T) {
	f := newCompleteLessonFixture(t)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{LessonID: "a1-1"})
	require.Error(t, err)

	_, err = f.handler.Handle(context.Background(), CompleteLessonCommand{LearnerID: "l1"})
	require.Error(t, err)
}

func TestCompleteLesson_LearnerNotFound(t *testing.T) {
	f := newCompleteLessonFixture(t)
	f.addPublishedLesson(t, "a1-1", level.A1, 1)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "ghost", LessonID: "a1-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLearnerNotFound))
}
