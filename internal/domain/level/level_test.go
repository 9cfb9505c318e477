package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHierarchy(t *testing.T) {
	h := Default()

	assert.Equal(t, []Level{A1, A2, B1, B2, C1, C2}, h.Levels())
	assert.Equal(t, 1, h.Rank(A1))
	assert.Equal(t, 6, h.Rank(C2))
	assert.Equal(t, 0, h.Rank(Level("Z9")))
	assert.Equal(t, C2, h.Highest())
}

func TestHierarchy_Next(t *testing.T) {
	h := Default()

	next, ok := h.Next(A1)
	assert.True(t, ok)
	assert.Equal(t, A2, next)

	next, ok = h.Next(B1)
	assert.True(t, ok)
	assert.Equal(t, B2, next)

	// Высший уровень - повышаться некуда
	_, ok = h.Next(C2)
	assert.False(t, ok)

	// Неизвестный уровень
	_, ok = h.Next(Level("Z9"))
	assert.False(t, ok)
}

func TestHierarchy_IsPremium(t *testing.T) {
	h := Default()

	assert.False(t, h.IsPremium(A1))
	assert.False(t, h.IsPremium(B1))
	assert.True(t, h.IsPremium(B2))
	assert.True(t, h.IsPremium(C2))
	assert.False(t, h.IsPremium(Level("Z9")))
}

func TestNewHierarchy_Validation(t *testing.T) {
	_, err := NewHierarchy(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyHierarchy)

	_, err = NewHierarchy([]Level{A1, A1}, nil)
	assert.ErrorIs(t, err, ErrDuplicateLevel)

	_, err = NewHierarchy([]Level{A1, A2}, []Level{C2})
	assert.ErrorIs(t, err, ErrPremiumOutsideHierarchy)
}

func TestNewHierarchy_CopiesInput(t *testing.T) {
	ordered := []Level{A1, A2}
	h, err := NewHierarchy(ordered, nil)
	require.NoError(t, err)

	ordered[0] = C2
	assert.Equal(t, A1, h.Levels()[0])
}
