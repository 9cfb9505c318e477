package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

func newLessonsFixture(t *testing.T) (*GetAvailableLessonsHandler, *fakeLearnerRepo, *fakeLessonRepo, *fakeCompletionReader) {
	t.Helper()

	learners := newFakeLearnerRepo()
	lessons := newFakeLessonRepo()
	completions := newFakeCompletionReader()

	handler := NewGetAvailableLessonsHandler(learners, lessons, completions, level.Default(), nil)
	return handler, learners, lessons, completions
}

func putLearnerAt(t *testing.T, repo *fakeLearnerRepo, lv level.Level) {
	t.Helper()

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Dana"})
	require.NoError(t, err)
	require.NoError(t, l.SelectLevel(lv))
	repo.put(l)
}

func groupByLevel(t *testing.T, result *GetAvailableLessonsResult, lv string) LevelGroupDTO {
	t.Helper()

	for _, g := range result.Levels {
		if g.Level == lv {
			return g
		}
	}
	t.Fatalf("level %s missing from result", lv)
	return LevelGroupDTO{}
}

// Бесплатный ученик: уровни на текущем и ниже открыты, уровни выше
// текущего закрыты, премиум-уровни закрыты независимо от ранга.
func TestGetAvailableLessons_FreeLearnerGates(t *testing.T) {
	handler, learners, lessons, completions := newLessonsFixture(t)
	putLearnerAt(t, learners, level.A2)

	lessons.publish("les-a1", level.A1, 1)
	lessons.publish("les-a2", level.A2, 1)
	lessons.publish("les-b1", level.B1, 1)
	lessons.publish("les-b2", level.B2, 1)
	completions.complete(level.A1, "les-a1")

	result, err := handler.Handle(context.Background(), GetAvailableLessonsQuery{
		LearnerID: "l1", Now: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, "A2", result.Level)
	assert.Len(t, result.Levels, 6)

	a1 := groupByLevel(t, result, "A1")
	assert.True(t, a1.Accessible)
	assert.Equal(t, 1, a1.CompletedCount)
	require.Len(t, a1.Lessons, 1)
	assert.True(t, a1.Lessons[0].Completed)

	assert.True(t, groupByLevel(t, result, "A2").Accessible)
	assert.False(t, groupByLevel(t, result, "B1").Accessible)
	assert.False(t, groupByLevel(t, result, "B2").Accessible)
}

// Премиум-доступ обходит прогрессивную разблокировку: открыты все
// уровни, включая премиумные и лежащие выше текущего.
func TestGetAvailableLessons_PremiumOpensAllLevels(t *testing.T) {
	handler, learners, lessons, _ := newLessonsFixture(t)

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Dana"})
	require.NoError(t, err)
	require.NoError(t, l.SelectLevel(level.A1))
	plan, ok := learner.DefaultPlanCatalog().ByName(learner.PlanLifetime)
	require.True(t, ok)
	l.ActivatePlan(plan, at(2025, 5, 1))
	learners.put(l)

	lessons.publish("les-c2", level.C2, 1)

	result, err := handler.Handle(context.Background(), GetAvailableLessonsQuery{
		LearnerID: "l1", Now: at(2025, 6, 1),
	})
	require.NoError(t, err)

	for _, g := range result.Levels {
		assert.True(t, g.Accessible, "level %s must be open", g.Level)
	}
	assert.Len(t, groupByLevel(t, result, "C2").Lessons, 1)
}

// Истёкшая подписка понижается лениво прямо в запросе: премиум-уровни
// и уровни выше текущего снова закрыты, понижение сохранено.
func TestGetAvailableLessons_ExpiredPremiumLocksAgain(t *testing.T) {
	handler, learners, _, _ := newLessonsFixture(t)

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Dana"})
	require.NoError(t, err)
	require.NoError(t, l.SelectLevel(level.A1))
	plan, ok := learner.DefaultPlanCatalog().ByName(learner.PlanMonthly)
	require.True(t, ok)
	l.ActivatePlan(plan, at(2025, 5, 1))
	learners.put(l)

	result, err := handler.Handle(context.Background(), GetAvailableLessonsQuery{
		LearnerID: "l1", Now: at(2025, 7, 1),
	})
	require.NoError(t, err)

	assert.True(t, groupByLevel(t, result, "A1").Accessible)
	assert.False(t, groupByLevel(t, result, "A2").Accessible)
	assert.False(t, groupByLevel(t, result, "B2").Accessible)
	assert.Equal(t, 1, learners.updates)
}

// Без выбранного уровня запрос возвращает пустой список, а не ошибку.
func TestGetAvailableLessons_NoLevelSelected(t *testing.T) {
	handler, learners, lessons, _ := newLessonsFixture(t)

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Dana"})
	require.NoError(t, err)
	learners.put(l)
	lessons.publish("les-a1", level.A1, 1)

	result, err := handler.Handle(context.Background(), GetAvailableLessonsQuery{
		LearnerID: "l1", Now: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Level)
	assert.Empty(t, result.Levels)
}

func TestGetAvailableLessons_UnknownLearner(t *testing.T) {
	handler, _, _, _ := newLessonsFixture(t)

	_, err := handler.Handle(context.Background(), GetAvailableLessonsQuery{
		LearnerID: "ghost", Now: at(2025, 6, 1),
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
