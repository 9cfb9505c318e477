package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalize_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Internalize("progression", "InTx", nil))
}

func TestInternalize_DomainErrorKeepsKind(t *testing.T) {
	err := Internalize("progression", "InTx", ErrLessonAlreadyComplete)

	assert.ErrorIs(t, err, ErrLessonAlreadyComplete)
	assert.True(t, IsConflict(err))
	assert.False(t, IsInternal(err))
}

func TestInternalize_WrappedDomainErrorKeepsKind(t *testing.T) {
	// Domain errors stay domain errors even when an infrastructure layer
	// has already added its own wrapping around them.
	wrapped := errors.Join(errors.New("tx closure failed"), ErrLessonLocked)

	err := Internalize("progression", "InTx", wrapped)

	assert.True(t, IsForbidden(err))
	assert.False(t, IsInternal(err))
}

func TestInternalize_RawStorageErrorBecomesInternal(t *testing.T) {
	raw := errors.New("dial tcp 127.0.0.1:5432: connection refused")

	err := Internalize("progression", "InTx", raw)

	require.Error(t, err)
	assert.True(t, IsInternal(err))
	assert.ErrorIs(t, err, raw)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "progression", domainErr.Domain)
	assert.Equal(t, "InTx", domainErr.Op)
}

func TestWithMeta_ClonesWithoutMutatingOriginal(t *testing.T) {
	enriched := ErrLessonLocked.WithMeta(map[string]any{"lesson_level": "B1"})

	assert.Nil(t, ErrLessonLocked.Meta)
	assert.Equal(t, "B1", enriched.Meta["lesson_level"])
	assert.ErrorIs(t, enriched, ErrForbidden)
}
