package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

func newSelectLevelFixture(t *testing.T) (*SelectLevelHandler, *fakeStore, *fakePublisher) {
	t.Helper()

	store := newFakeStore()
	publisher := &fakePublisher{}

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Anna"})
	require.NoError(t, err)
	store.putLearner(l)

	handler := NewSelectLevelHandler(&fakeLearnerRepo{store: store}, publisher, level.Default(), nil)
	return handler, store, publisher
}

func TestSelectLevel_SetsStartingLevel(t *testing.T) {
	handler, store, publisher := newSelectLevelFixture(t)

	result, err := handler.Handle(context.Background(), SelectLevelCommand{
		LearnerID: "l1", Level: "A2",
	})
	require.NoError(t, err)

	assert.Equal(t, "A2", result.Level)
	assert.False(t, result.IsPremium)
	assert.Equal(t, level.A2, *store.learnerByID("l1").CurrentLevel)

	events := publisher.published(shared.EventLevelSelected)
	require.Len(t, events, 1)
}

func TestSelectLevel_PremiumLevelIsSelectable(t *testing.T) {
	handler, _, _ := newSelectLevelFixture(t)

	// Selection is free; the payment gate applies on completion.
	result, err := handler.Handle(context.Background(), SelectLevelCommand{
		LearnerID: "l1", Level: "C1",
	})
	require.NoError(t, err)
	assert.True(t, result.IsPremium)
}

func TestSelectLevel_UnknownLevel(t *testing.T) {
	handler, _, _ := newSelectLevelFixture(t)

	_, err := handler.Handle(context.Background(), SelectLevelCommand{
		LearnerID: "l1", Level: "Z9",
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSelectLevel_RepeatSelectionIsRejected(t *testing.T) {
	handler, store, _ := newSelectLevelFixture(t)

	_, err := handler.Handle(context.Background(), SelectLevelCommand{
		LearnerID: "l1", Level: "A1",
	})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), SelectLevelCommand{
		LearnerID: "l1", Level: "B1",
	})
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))

	// The original choice stands.
	assert.Equal(t, level.A1, *store.learnerByID("l1").CurrentLevel)
}

func TestSelectLevel_LearnerNotFound(t *testing.T) {
	handler, _, _ := newSelectLevelFixture(t)

	_, err := handler.Handle(context.Background(), SelectLevelCommand{
		LearnerID: "ghost", Level: "A1",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
