package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestRecordActivity_FirstDay(t *testing.T) {
	s, err := NewStreak("learner-1")
	require.NoError(t, err)

	out := s.RecordActivity(day(2025, 6, 1))

	assert.True(t, out.Changed)
	assert.True(t, out.Extended)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 1, s.TotalActiveDays)
}

func TestRecordActivity_SameDayIsNoop(t *testing.T) {
	s, _ := NewStreak("learner-1")
	s.RecordActivity(day(2025, 6, 1))

	// Вторая активность в тот же день ничего не меняет.
	out := s.RecordActivity(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC))

	assert.False(t, out.Changed)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.TotalActiveDays)
}

func TestRecordActivity_ConsecutiveDays(t *testing.T) {
	s, _ := NewStreak("learner-1")

	s.RecordActivity(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC))
	out := s.RecordActivity(time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC))

	assert.True(t, out.Extended)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak)
	assert.Equal(t, 2, s.TotalActiveDays)
}

func TestRecordActivity_GapResetsStreak(t *testing.T) {
	s, _ := NewStreak("learner-1")

	s.RecordActivity(day(2025, 6, 1))
	s.RecordActivity(day(2025, 6, 2))
	s.RecordActivity(day(2025, 6, 3))
	require.Equal(t, 3, s.CurrentStreak)

	out := s.RecordActivity(day(2025, 6, 7))

	assert.True(t, out.Broken)
	assert.Equal(t, 3, out.PreviousStreak)
	assert.Equal(t, 3, out.DaysMissed)
	assert.Equal(t, 1, s.CurrentStreak)
	// Лучшая серия не уменьшается.
	assert.Equal(t, 3, s.LongestStreak)
	assert.Equal(t, 4, s.TotalActiveDays)
}

func TestRecordActivity_LongestIsMonotonic(t *testing.T) {
	s, _ := NewStreak("learner-1")

	for d := 1; d <= 5; d++ {
		s.RecordActivity(day(2025, 6, d))
	}
	require.Equal(t, 5, s.LongestStreak)

	// Разрыв и короткая новая серия.
	s.RecordActivity(day(2025, 6, 20))
	s.RecordActivity(day(2025, 6, 21))

	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)
}

func TestDisplayedCurrent_LazyCorrection(t *testing.T) {
	s, _ := NewStreak("learner-1")
	s.RecordActivity(day(2025, 6, 1))
	s.RecordActivity(day(2025, 6, 2))

	// Сегодня и вчера серия видна как есть.
	assert.Equal(t, 2, s.DisplayedCurrent(day(2025, 6, 2)))
	assert.Equal(t, 2, s.DisplayedCurrent(day(2025, 6, 3)))

	// Позавчера и дальше серия фактически прервана - показываем ноль,
	// но хранимая запись не меняется.
	assert.Equal(t, 0, s.DisplayedCurrent(day(2025, 6, 4)))
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestDisplayedCurrent_NoActivity(t *testing.T) {
	s, _ := NewStreak("learner-1")
	assert.Equal(t, 0, s.DisplayedCurrent(day(2025, 6, 1)))
}

func TestIsActiveWithin(t *testing.T) {
	s, _ := NewStreak("learner-1")
	s.RecordActivity(day(2025, 6, 1))

	assert.True(t, s.IsActiveWithin(day(2025, 6, 1), 2))
	assert.True(t, s.IsActiveWithin(day(2025, 6, 2), 2))
	assert.False(t, s.IsActiveWithin(day(2025, 6, 3), 2))
}

func TestNewStreak_RequiresLearnerID(t *testing.T) {
	_, err := NewStreak("")
	assert.ErrorIs(t, err, ErrEmptyLearnerID)
}
