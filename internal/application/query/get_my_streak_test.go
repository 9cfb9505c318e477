package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
)

func streakWithDays(t *testing.T, learnerID string, days ...int) *streak.Streak {
	t.Helper()

	s, err := streak.NewStreak(learnerID)
	require.NoError(t, err)
	for _, d := range days {
		s.RecordActivity(at(2025, 6, d))
	}
	return s
}

func TestGetMyStreak_FreshActivity(t *testing.T) {
	repo := newFakeStreakRepo()
	repo.put(streakWithDays(t, "l1", 1, 2, 3))
	handler := NewGetMyStreakHandler(repo, nil)

	result, err := handler.Handle(context.Background(), GetMyStreakQuery{
		LearnerID: "l1", Now: at(2025, 6, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.CurrentStreak)
	assert.Equal(t, 3, result.StoredStreak)
	assert.Equal(t, 3, result.LongestStreak)
	assert.True(t, result.ActiveToday)
	require.NotNil(t, result.LastActivityDate)
}

func TestGetMyStreak_StaleStreakReadsAsZero(t *testing.T) {
	repo := newFakeStreakRepo()
	repo.put(streakWithDays(t, "l1", 1, 2, 3))
	handler := NewGetMyStreakHandler(repo, nil)

	// Последняя активность 3 июня, смотрим 10-го: серия показывается
	// нулевой, но хранимое значение не трогается.
	result, err := handler.Handle(context.Background(), GetMyStreakQuery{
		LearnerID: "l1", Now: at(2025, 6, 10),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.CurrentStreak)
	assert.Equal(t, 3, result.StoredStreak)
	assert.Equal(t, 3, result.LongestStreak)
	assert.False(t, result.ActiveToday)

	stored, err := repo.GetByLearner(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentStreak)
}

func TestGetMyStreak_YesterdayStillCounts(t *testing.T) {
	repo := newFakeStreakRepo()
	repo.put(streakWithDays(t, "l1", 4, 5))
	handler := NewGetMyStreakHandler(repo, nil)

	result, err := handler.Handle(context.Background(), GetMyStreakQuery{
		LearnerID: "l1", Now: at(2025, 6, 6),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.CurrentStreak)
	assert.False(t, result.ActiveToday)
}

func TestGetMyStreak_NoRecordIsZero(t *testing.T) {
	handler := NewGetMyStreakHandler(newFakeStreakRepo(), nil)

	result, err := handler.Handle(context.Background(), GetMyStreakQuery{
		LearnerID: "l1", Now: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.CurrentStreak)
	assert.Equal(t, 0, result.TotalActiveDays)
	assert.Nil(t, result.LastActivityDate)
}

func TestGetMyStreak_Validation(t *testing.T) {
	handler := NewGetMyStreakHandler(newFakeStreakRepo(), nil)

	_, err := handler.Handle(context.Background(), GetMyStreakQuery{})
	require.Error(t, err)
}
