package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

type recordActivityFixture struct {
	handler    *RecordActivityHandler
	store      *fakeStore
	streakRepo *fakeStreakRepo
	publisher  *fakePublisher
}

func newRecordActivityFixture(t *testing.T) *recordActivityFixture {
	t.Helper()

	store := newFakeStore()
	streakRepo := newFakeStreakRepo()
	publisher := &fakePublisher{}

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Anna"})
	require.NoError(t, err)
	store.putLearner(l)

	return &recordActivityFixture{
		handler:    NewRecordActivityHandler(streakRepo, &fakeLearnerRepo{store: store}, publisher, nil),
		store:      store,
		streakRepo: streakRepo,
		publisher:  publisher,
	}
}

func TestRecordActivity_FirstActivityStartsStreak(t *testing.T) {
	f := newRecordActivityFixture(t)

	result, err := f.handler.Handle(context.Background(), RecordActivityCommand{
		LearnerID: "l1", Timestamp: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.True(t, result.Extended)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.LongestStreak)
	assert.Equal(t, 1, result.TotalActiveDays)

	extended := f.publisher.published(shared.EventStreakExtended)
	require.Len(t, extended, 1)
}

func TestRecordActivity_SameDayIsIdempotent(t *testing.T) {
	f := newRecordActivityFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordActivityCommand{
		LearnerID: "l1", Timestamp: at(2025, 6, 1),
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(context.Background(), RecordActivityCommand{
		LearnerID: "l1", Timestamp: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.TotalActiveDays)

	// No second event for the same day.
	extended := f.publisher.published(shared.EventStreakExtended)
	require.Len(t, extended, 1)
}

func TestRecordActivity_BreakPublishesStreakBroken(t *testing.T) {
	f := newRecordActivityFixture(t)

	for d := 1; d <= 3; d++ {
		_, err := f.handler.Handle(context.Background(), RecordActivityCommand{
			LearnerID: "l1", Timestamp: at(2025, 6, d),
		})
		require.NoError(t, err)
	}

	result, err := f.handler.Handle(context.Background(), RecordActivityCommand{
		LearnerID: "l1", Timestamp: at(2025, 6, 10),
	})
	require.NoError(t, err)

	assert.True(t, result.Broken)
	assert.Equal(t, 3, result.PreviousStreak)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 3, result.LongestStreak)
	assert.Equal(t, 4, result.TotalActiveDays)

	broken := f.publisher.published(shared.EventStreakBroken)
	require.Len(t, broken, 1)
}

func TestRecordActivity_UnknownLearner(t *testing.T) {
	f := newRecordActivityFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordActivityCommand{
		LearnerID: "ghost", Timestamp: at(2025, 6, 1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLearnerNotFound))
}

func TestRecordActivity_Validation(t *testing.T) {
	f := newRecordActivityFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordActivityCommand{})
	require.Error(t, err)
}
