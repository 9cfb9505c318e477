package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/streak"
	"github.com/lingo-hub/lingo-learning-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements streak.Repository for PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// GetByLearner returns the learner's streak record.
func (r *StreakRepository) GetByLearner(ctx context.Context, learnerID string) (*streak.Streak, error) {
	query := `
		SELECT learner_id, current_streak, longest_streak, last_activity_date, total_active_days, updated_at
		FROM streaks
		WHERE learner_id = $1
	`

	var (
		s        streak.Streak
		lastDate *time.Time
	)
	err := r.conn.QueryRow(ctx, query, learnerID).Scan(
		&s.LearnerID,
		&s.CurrentStreak,
		&s.LongestStreak,
		&lastDate,
		&s.TotalActiveDays,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStreakNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	if lastDate != nil {
		s.LastActivityDate = timeutil.DateOnly(*lastDate)
	}

	return &s, nil
}

// Upsert inserts or updates the streak record keyed by learner_id.
func (r *StreakRepository) Upsert(ctx context.Context, s *streak.Streak) error {
	query := `
		INSERT INTO streaks (learner_id, current_streak, longest_streak, last_activity_date, total_active_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (learner_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_activity_date = EXCLUDED.last_activity_date,
			total_active_days = EXCLUDED.total_active_days,
			updated_at = EXCLUDED.updated_at
	`

	var lastDate *time.Time
	if !s.LastActivityDate.IsZero() {
		d := s.LastActivityDate
		lastDate = &d
	}

	_, err := r.conn.Exec(ctx, query,
		s.LearnerID,
		s.CurrentStreak,
		s.LongestStreak,
		lastDate,
		s.TotalActiveDays,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}

	return nil
}

// TopCurrent returns the current-streak leaderboard. Only learners active
// today or yesterday participate: an older last activity means the stored
// streak is stale and effectively zero.
func (r *StreakRepository) TopCurrent(ctx context.Context, now time.Time, limit int) ([]streak.Entry, error) {
	// Yesterday's date is the freshness cutoff.
	cutoff := timeutil.DateOnly(now).AddDate(0, 0, -1)

	query := `
		SELECT s.learner_id, l.display_name, s.current_streak, s.longest_streak, s.total_active_days, s.last_activity_date
		FROM streaks s
		JOIN learners l ON l.id = s.learner_id
		WHERE s.last_activity_date >= $1
		ORDER BY s.current_streak DESC, s.longest_streak DESC
		LIMIT $2
	`

	return r.queryEntries(ctx, query, cutoff, limit)
}

// TopLongest returns the all-time best-streak leaderboard. Freshness of
// activity plays no role here.
func (r *StreakRepository) TopLongest(ctx context.Context, limit int) ([]streak.Entry, error) {
	query := `
		SELECT s.learner_id, l.display_name, s.current_streak, s.longest_streak, s.total_active_days, s.last_activity_date
		FROM streaks s
		JOIN learners l ON l.id = s.learner_id
		WHERE s.longest_streak > 0
		ORDER BY s.longest_streak DESC, s.total_active_days DESC
		LIMIT $1
	`

	return r.queryEntries(ctx, query, limit)
}

func (r *StreakRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]streak.Entry, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query streak leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []streak.Entry
	for rows.Next() {
		var (
			e        streak.Entry
			lastDate *time.Time
		)
		err := rows.Scan(
			&e.LearnerID,
			&e.DisplayName,
			&e.CurrentStreak,
			&e.LongestStreak,
			&e.TotalActiveDays,
			&lastDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan streak entry: %w", err)
		}
		if lastDate != nil {
			e.LastActivityDate = timeutil.DateOnly(*lastDate)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
