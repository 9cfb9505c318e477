package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
)

// Тестовые двойники для обработчиков запросов.

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

type fakeLearnerRepo struct {
	learners map[string]*learner.Learner
	top      []learner.CoinEntry
	updates  int
}

func newFakeLearnerRepo() *fakeLearnerRepo {
	return &fakeLearnerRepo{learners: make(map[string]*learner.Learner)}
}

func (r *fakeLearnerRepo) put(l *learner.Learner) {
	r.learners[l.ID] = l.Clone()
}

func (r *fakeLearnerRepo) Create(ctx context.Context, l *learner.Learner) error {
	if _, ok := r.learners[l.ID]; ok {
		return shared.ErrLearnerAlreadyExists
	}
	r.put(l)
	return nil
}

func (r *fakeLearnerRepo) GetByID(ctx context.Context, learnerID string) (*learner.Learner, error) {
	l, ok := r.learners[learnerID]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l.Clone(), nil
}

func (r *fakeLearnerRepo) Update(ctx context.Context, l *learner.Learner) error {
	if _, ok := r.learners[l.ID]; !ok {
		return shared.ErrLearnerNotFound
	}
	r.put(l)
	r.updates++
	return nil
}

func (r *fakeLearnerRepo) GetAll(ctx context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	out := make([]*learner.Learner, 0, len(r.learners))
	for _, l := range r.learners {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *fakeLearnerRepo) GetByIDs(ctx context.Context, ids []string) ([]*learner.Learner, error) {
	out := make([]*learner.Learner, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.learners[id]; ok {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (r *fakeLearnerRepo) Count(ctx context.Context) (int, error) {
	return len(r.learners), nil
}

func (r *fakeLearnerRepo) TopByCoins(ctx context.Context, limit int) ([]learner.CoinEntry, error) {
	if limit > len(r.top) {
		limit = len(r.top)
	}
	return r.top[:limit], nil
}

func (r *fakeLearnerRepo) Exists(ctx context.Context, learnerID string) (bool, error) {
	_, ok := r.learners[learnerID]
	return ok, nil
}

// fakeCoinCache изображает кеш рейтинга: промах, пока не наполнен.
type fakeCoinCache struct {
	entries  []learner.CoinEntry
	warm     bool
	rebuilds int
	failTop  error
}

var errCacheMiss = errors.New("cache miss")

func (c *fakeCoinCache) TopN(ctx context.Context, limit int) ([]learner.CoinEntry, error) {
	if c.failTop != nil {
		return nil, c.failTop
	}
	if !c.warm {
		return nil, errCacheMiss
	}
	if limit > len(c.entries) {
		limit = len(c.entries)
	}
	return c.entries[:limit], nil
}

func (c *fakeCoinCache) Rebuild(ctx context.Context, entries []learner.CoinEntry) error {
	c.entries = append([]learner.CoinEntry(nil), entries...)
	c.warm = true
	c.rebuilds++
	return nil
}

// fakeLessonRepo хранит опубликованные уроки по уровням.
type fakeLessonRepo struct {
	byLevel map[level.Level][]*lesson.Lesson
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{byLevel: make(map[level.Level][]*lesson.Lesson)}
}

func (r *fakeLessonRepo) publish(id string, lv level.Level, position int) {
	r.byLevel[lv] = append(r.byLevel[lv], &lesson.Lesson{
		ID:       id,
		Title:    "Lesson " + id,
		Level:    lv,
		Status:   lesson.StatusPublished,
		Position: position,
	})
}

func (r *fakeLessonRepo) ListPublishedByLevel(ctx context.Context, lv level.Level) ([]*lesson.Lesson, error) {
	return r.byLevel[lv], nil
}

// fakeCompletionReader хранит завершённые уроки одного ученика по уровням.
type fakeCompletionReader struct {
	byLevel map[level.Level][]string
}

func newFakeCompletionReader() *fakeCompletionReader {
	return &fakeCompletionReader{byLevel: make(map[level.Level][]string)}
}

func (r *fakeCompletionReader) complete(lv level.Level, lessonID string) {
	r.byLevel[lv] = append(r.byLevel[lv], lessonID)
}

func (r *fakeCompletionReader) ListCompletedLessonIDs(ctx context.Context, learnerID string, lv level.Level) ([]string, error) {
	return r.byLevel[lv], nil
}

type fakeStreakRepo struct {
	streaks map[string]*streak.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[string]*streak.Streak)}
}

func (r *fakeStreakRepo) put(s *streak.Streak) {
	copied := *s
	r.streaks[s.LearnerID] = &copied
}

func (r *fakeStreakRepo) GetByLearner(ctx context.Context, learnerID string) (*streak.Streak, error) {
	s, ok := r.streaks[learnerID]
	if !ok {
		return nil, shared.ErrStreakNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStreakRepo) Upsert(ctx context.Context, s *streak.Streak) error {
	r.put(s)
	return nil
}

func (r *fakeStreakRepo) TopCurrent(ctx context.Context, now time.Time, limit int) ([]streak.Entry, error) {
	out := make([]streak.Entry, 0, len(r.streaks))
	for _, s := range r.streaks {
		if s.DisplayedCurrent(now) > 0 {
			out = append(out, streak.Entry{
				LearnerID:     s.LearnerID,
				CurrentStreak: s.DisplayedCurrent(now),
				LongestStreak: s.LongestStreak,
			})
		}
	}
	if limit > len(out) {
		limit = len(out)
	}
	return out[:limit], nil
}

func (r *fakeStreakRepo) TopLongest(ctx context.Context, limit int) ([]streak.Entry, error) {
	out := make([]streak.Entry, 0, len(r.streaks))
	for _, s := range r.streaks {
		out = append(out, streak.Entry{
			LearnerID:     s.LearnerID,
			CurrentStreak: s.CurrentStreak,
			LongestStreak: s.LongestStreak,
		})
	}
	if limit > len(out) {
		limit = len(out)
	}
	return out[:limit], nil
}
