package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
)

func TestNewLearner(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{ID: "learner-1", DisplayName: "  Dana  "})
	require.NoError(t, err)

	assert.Equal(t, "Dana", l.DisplayName)
	assert.Nil(t, l.CurrentLevel)
	assert.Equal(t, Coins(0), l.Coins)
	assert.Equal(t, SubscriptionFree, l.Subscription.Status)
}

func TestNewLearner_Validation(t *testing.T) {
	_, err := NewLearner(NewLearnerParams{ID: "", DisplayName: "Dana"})
	assert.Error(t, err)

	_, err = NewLearner(NewLearnerParams{ID: "learner-1", DisplayName: "   "})
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestSelectLevel_OnceOnly(t *testing.T) {
	l := newTestLearner(t)

	require.NoError(t, l.SelectLevel(level.A2))
	require.NotNil(t, l.CurrentLevel)
	assert.Equal(t, level.A2, *l.CurrentLevel)

	// Повторный выбор запрещён, даже того же уровня.
	err := l.SelectLevel(level.A2)
	assert.ErrorIs(t, err, ErrLevelAlreadySelected)
}

func TestPromoteTo(t *testing.T) {
	l := newTestLearner(t)

	err := l.PromoteTo(level.A2)
	assert.ErrorIs(t, err, ErrNoLevelSelected)

	require.NoError(t, l.SelectLevel(level.A1))
	require.NoError(t, l.PromoteTo(level.A2))
	assert.Equal(t, level.A2, *l.CurrentLevel)
}

func TestAddCoins(t *testing.T) {
	l := newTestLearner(t)

	balance, err := l.AddCoins(10)
	require.NoError(t, err)
	assert.Equal(t, Coins(10), balance)

	balance, err = l.AddCoins(50)
	require.NoError(t, err)
	assert.Equal(t, Coins(60), balance)

	_, err = l.AddCoins(-100)
	assert.ErrorIs(t, err, ErrNegativeCoins)
	assert.Equal(t, Coins(60), l.Coins)
}

func TestClone_IsDeep(t *testing.T) {
	l := newTestLearner(t)
	require.NoError(t, l.SelectLevel(level.B1))

	clone := l.Clone()
	require.NoError(t, clone.PromoteTo(level.B2))

	assert.Equal(t, level.B1, *l.CurrentLevel)
	assert.Equal(t, level.B2, *clone.CurrentLevel)
}
