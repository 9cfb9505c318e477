package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONAL PROGRESSION STORE
// Implements progression.Store. The whole lesson completion closure runs
// inside one transaction; the learner row is locked first, so competing
// completions for the same learner serialize behind each other.
//
// Serialization failures and deadlocks re-run the closure from scratch
// with bounded backoff. Domain errors (gate failures) are returned as-is
// and never retried.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionStore implements progression.Store for PostgreSQL.
type ProgressionStore struct {
	conn    *Connection
	retrier *retry.Retrier
}

// NewProgressionStore creates a new ProgressionStore.
func NewProgressionStore(conn *Connection) *ProgressionStore {
	return NewProgressionStoreWithRetry(conn, 3, 20*time.Millisecond)
}

// NewProgressionStoreWithRetry creates a ProgressionStore with custom
// retry settings for serialization failures.
func NewProgressionStoreWithRetry(conn *Connection, maxAttempts int, initialDelay time.Duration) *ProgressionStore {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 20 * time.Millisecond
	}

	return &ProgressionStore{
		conn: conn,
		retrier: retry.New(
			retry.WithMaxAttempts(maxAttempts),
			retry.WithInitialDelay(initialDelay),
			retry.WithMaxDelay(500*time.Millisecond),
			retry.WithJitter(0.2),
			retry.WithRetryIf(IsSerializationFailure),
		),
	}
}

// InTx runs the closure inside a Repeatable Read transaction, committing
// on success. The snapshot keeps the promotion recount consistent with the
// lesson catalog as of the transaction start; on a serialization failure
// or deadlock the whole closure re-runs, so every gate check re-reads the
// then-current state. Raw storage errors never cross this boundary: they
// are surfaced as Internal-kind domain errors.
func (s *ProgressionStore) InTx(ctx context.Context, fn func(ctx context.Context, tx progression.Tx) error) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, RepeatableReadTxOptions(), func(tx pgx.Tx) error {
			return fn(ctx, &progressionTx{tx: tx})
		})
	})
	return shared.Internalize("progression", "InTx", err)
}

// progressionTx adapts a pgx transaction to progression.Tx.
type progressionTx struct {
	tx pgx.Tx
}

// GetLearnerForUpdate reads the learner with a row lock.
func (t *progressionTx) GetLearnerForUpdate(ctx context.Context, learnerID string) (*learner.Learner, error) {
	return getLearner(ctx, t.tx, learnerID, true)
}

// GetLesson reads a lesson, including soft-deleted ones.
func (t *progressionTx) GetLesson(ctx context.Context, lessonID string) (*lesson.Lesson, error) {
	return getLesson(ctx, t.tx, lessonID)
}

// CompletionExists checks whether the lesson is already credited.
func (t *progressionTx) CompletionExists(ctx context.Context, learnerID, lessonID string) (bool, error) {
	return completionExists(ctx, t.tx, learnerID, lessonID)
}

// InsertCompletion inserts a completion record.
func (t *progressionTx) InsertCompletion(ctx context.Context, c *progression.Completion) error {
	return insertCompletion(ctx, t.tx, c)
}

// UpdateLearner persists the mutated learner.
func (t *progressionTx) UpdateLearner(ctx context.Context, l *learner.Learner) error {
	return updateLearner(ctx, t.tx, l)
}

// CountPublishedLessons counts published, non-deleted lessons of a level.
func (t *progressionTx) CountPublishedLessons(ctx context.Context, lv level.Level) (int, error) {
	return countPublishedLessons(ctx, t.tx, lv)
}

// CountCompletions counts the learner's completions among published,
// non-deleted lessons of a level.
func (t *progressionTx) CountCompletions(ctx context.Context, learnerID string, lv level.Level) (int, error) {
	return countCompletions(ctx, t.tx, learnerID, lv)
}
