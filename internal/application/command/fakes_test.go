package command

import (
	"context"
	"sync"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
)

// In-memory test doubles for the command handlers. The store mirrors the
// transactional semantics of the real one: mutations made by a closure
// that returns an error are rolled back.

type fakeStore struct {
	mu          sync.Mutex
	learners    map[string]*learner.Learner
	lessons     map[string]*lesson.Lesson
	completions map[string]map[string]bool // learnerID -> lessonID -> credited
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		learners:    make(map[string]*learner.Learner),
		lessons:     make(map[string]*lesson.Lesson),
		completions: make(map[string]map[string]bool),
	}
}

func (s *fakeStore) putLearner(l *learner.Learner) {
	s.learners[l.ID] = l.Clone()
}

func (s *fakeStore) learnerByID(id string) *learner.Learner {
	return s.learners[id].Clone()
}

func (s *fakeStore) putLesson(lsn *lesson.Lesson) {
	s.lessons[lsn.ID] = lsn
}

func (s *fakeStore) credit(learnerID, lessonID string) {
	if s.completions[learnerID] == nil {
		s.completions[learnerID] = make(map[string]bool)
	}
	s.completions[learnerID][lessonID] = true
}

func (s *fakeStore) completionCount(learnerID string) int {
	return len(s.completions[learnerID])
}

func (s *fakeStore) snapshot() (map[string]*learner.Learner, map[string]map[string]bool) {
	learners := make(map[string]*learner.Learner, len(s.learners))
	for id, l := range s.learners {
		learners[id] = l.Clone()
	}
	completions := make(map[string]map[string]bool, len(s.completions))
	for id, done := range s.completions {
		copied := make(map[string]bool, len(done))
		for lessonID := range done {
			copied[lessonID] = true
		}
		completions[id] = copied
	}
	return learners, completions
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx progression.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	learners, completions := s.snapshot()
	if err := fn(ctx, &fakeTx{store: s}); err != nil {
		s.learners = learners
		s.completions = completions
		return err
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) GetLearnerForUpdate(ctx context.Context, learnerID string) (*learner.Learner, error) {
	l, ok := t.store.learners[learnerID]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l.Clone(), nil
}

func (t *fakeTx) GetLesson(ctx context.Context, lessonID string) (*lesson.Lesson, error) {
	lsn, ok := t.store.lessons[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return lsn, nil
}

func (t *fakeTx) CompletionExists(ctx context.Context, learnerID, lessonID string) (bool, error) {
	return t.store.completions[learnerID][lessonID], nil
}

func (t *fakeTx) InsertCompletion(ctx context.Context, c *progression.Completion) error {
	if t.store.completions[c.LearnerID][c.LessonID] {
		return shared.ErrLessonAlreadyComplete
	}
	t.store.credit(c.LearnerID, c.LessonID)
	return nil
}

func (t *fakeTx) UpdateLearner(ctx context.Context, l *learner.Learner) error {
	t.store.learners[l.ID] = l.Clone()
	return nil
}

func (t *fakeTx) CountPublishedLessons(ctx context.Context, lv level.Level) (int, error) {
	count := 0
	for _, lsn := range t.store.lessons {
		if lsn.Level == lv && lsn.IsPublished() {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) CountCompletions(ctx context.Context, learnerID string, lv level.Level) (int, error) {
	count := 0
	for lessonID := range t.store.completions[learnerID] {
		lsn, ok := t.store.lessons[lessonID]
		if ok && lsn.Level == lv && lsn.IsPublished() {
			count++
		}
	}
	return count, nil
}

// fakeStreakRepo keeps streaks in a map.
type fakeStreakRepo struct {
	mu      sync.Mutex
	streaks map[string]*streak.Streak
	failGet error
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[string]*streak.Streak)}
}

func (r *fakeStreakRepo) GetByLearner(ctx context.Context, learnerID string) (*streak.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failGet != nil {
		return nil, r.failGet
	}
	s, ok := r.streaks[learnerID]
	if !ok {
		return nil, shared.ErrStreakNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStreakRepo) Upsert(ctx context.Context, s *streak.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *s
	r.streaks[s.LearnerID] = &copied
	return nil
}

func (r *fakeStreakRepo) TopCurrent(ctx context.Context, now time.Time, limit int) ([]streak.Entry, error) {
	return nil, nil
}

func (r *fakeStreakRepo) TopLongest(ctx context.Context, limit int) ([]streak.Entry, error) {
	return nil, nil
}

// fakePublisher records every published event.
type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published(eventType shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeLearnerRepo implements learner.Repository over the fake store.
type fakeLearnerRepo struct {
	store *fakeStore
}

func (r *fakeLearnerRepo) Create(ctx context.Context, l *learner.Learner) error {
	if _, ok := r.store.learners[l.ID]; ok {
		return shared.ErrLearnerAlreadyExists
	}
	r.store.putLearner(l)
	return nil
}

func (r *fakeLearnerRepo) GetByID(ctx context.Context, learnerID string) (*learner.Learner, error) {
	l, ok := r.store.learners[learnerID]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l.Clone(), nil
}

func (r *fakeLearnerRepo) Update(ctx context.Context, l *learner.Learner) error {
	if _, ok := r.store.learners[l.ID]; !ok {
		return shared.ErrLearnerNotFound
	}
	r.store.putLearner(l)
	return nil
}

func (r *fakeLearnerRepo) GetAll(ctx context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	out := make([]*learner.Learner, 0, len(r.store.learners))
	for _, l := range r.store.learners {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *fakeLearnerRepo) GetByIDs(ctx context.Context, ids []string) ([]*learner.Learner, error) {
	out := make([]*learner.Learner, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.store.learners[id]; ok {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (r *fakeLearnerRepo) Count(ctx context.Context) (int, error) {
	return len(r.store.learners), nil
}

func (r *fakeLearnerRepo) TopByCoins(ctx context.Context, limit int) ([]learner.CoinEntry, error) {
	return nil, nil
}

func (r *fakeLearnerRepo) Exists(ctx context.Context, learnerID string) (bool, error) {
	_, ok := r.store.learners[learnerID]
	return ok, nil
}
