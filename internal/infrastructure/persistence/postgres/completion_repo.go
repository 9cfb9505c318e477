package postgres

import (
	"context"
	"fmt"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION REPOSITORY IMPLEMENTATION
// Read side of the completion records. The write side lives in the
// transactional store: completions are only ever inserted inside the
// lesson completion transaction.
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRepository implements progression.Reader for PostgreSQL.
type CompletionRepository struct {
	conn *Connection
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(conn *Connection) *CompletionRepository {
	return &CompletionRepository{conn: conn}
}

// CountByLevel returns the learner's completions among published,
// non-deleted lessons of the given level.
func (r *CompletionRepository) CountByLevel(ctx context.Context, learnerID string, lv level.Level) (int, error) {
	return countCompletions(ctx, r.conn, learnerID, lv)
}

// ListCompletedLessonIDs returns IDs of lessons of the given level
// the learner has completed.
func (r *CompletionRepository) ListCompletedLessonIDs(ctx context.Context, learnerID string, lv level.Level) ([]string, error) {
	query := `
		SELECT c.lesson_id
		FROM completions c
		JOIN lessons l ON l.id = c.lesson_id
		WHERE c.learner_id = $1 AND l.level = $2
	`

	rows, err := r.conn.Query(ctx, query, learnerID, lv.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list completed lessons: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lesson id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// TotalCompletions returns the platform-wide number of completions.
func (r *CompletionRepository) TotalCompletions(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM completions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}

// TotalCoinsAwarded returns the sum of coins awarded for lesson completions.
func (r *CompletionRepository) TotalCoinsAwarded(ctx context.Context) (int, error) {
	var total int
	err := r.conn.QueryRow(ctx, `SELECT COALESCE(SUM(coins_awarded), 0) FROM completions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum awarded coins: %w", err)
	}
	return total, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared helpers (reused by the transactional store)
// ─────────────────────────────────────────────────────────────────────────────

func completionExists(ctx context.Context, q Querier, learnerID, lessonID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM completions WHERE learner_id = $1 AND lesson_id = $2)`,
		learnerID, lessonID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completion existence: %w", err)
	}
	return exists, nil
}

func insertCompletion(ctx context.Context, q Querier, c *progression.Completion) error {
	query := `
		INSERT INTO completions (id, learner_id, lesson_id, level, coins_awarded, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		c.ID,
		c.LearnerID,
		c.LessonID,
		c.Level.String(),
		c.CoinsAwarded,
		c.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// Unique index backstop: the existence check lost a race.
			return shared.ErrLessonAlreadyComplete
		}
		return fmt.Errorf("failed to insert completion: %w", err)
	}

	return nil
}

// countCompletions counts the learner's completions among published,
// non-deleted lessons of the level. Runs inside the promotion transaction
// as well as on the read side, so both see the same definition.
func countCompletions(ctx context.Context, q Querier, learnerID string, lv level.Level) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM completions c
		JOIN lessons l ON l.id = c.lesson_id
		WHERE c.learner_id = $1
		  AND l.level = $2
		  AND l.status = 'published'
		  AND l.deleted_at IS NULL
	`

	var count int
	err := q.QueryRow(ctx, query, learnerID, lv.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}
