package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository implements lesson.Repository for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

const lessonColumns = `
	id, title, level, status, position, deleted_at, created_at, updated_at
`

// Create creates a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *lesson.Lesson) error {
	query := `
		INSERT INTO lessons (id, title, level, status, position, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID,
		l.Title,
		l.Level.String(),
		string(l.Status),
		l.Position,
		l.DeletedAt,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("lesson", "Create", shared.ErrConflict, "lesson already exists", err)
		}
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

// GetByID returns a lesson by ID, including soft-deleted ones.
// Status checks stay in the domain logic.
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*lesson.Lesson, error) {
	return getLesson(ctx, r.conn, id)
}

// Update updates a lesson.
func (r *LessonRepository) Update(ctx context.Context, l *lesson.Lesson) error {
	query := `
		UPDATE lessons SET
			title = $1,
			level = $2,
			status = $3,
			position = $4,
			deleted_at = $5,
			updated_at = $6
		WHERE id = $7
	`

	result, err := r.conn.Exec(ctx, query,
		l.Title,
		l.Level.String(),
		string(l.Status),
		l.Position,
		l.DeletedAt,
		time.Now().UTC(),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}

	return nil
}

// ListPublishedByLevel returns published, non-deleted lessons of a level
// ordered by position.
func (r *LessonRepository) ListPublishedByLevel(ctx context.Context, lv level.Level) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE level = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`, lessonColumns)

	rows, err := r.conn.Query(ctx, query, lv.String(), string(lesson.StatusPublished))
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*lesson.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	return lessons, rows.Err()
}

// CountPublishedByLevel returns the number of published, non-deleted
// lessons of a level.
func (r *LessonRepository) CountPublishedByLevel(ctx context.Context, lv level.Level) (int, error) {
	return countPublishedLessons(ctx, r.conn, lv)
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared scan helpers (reused by the transactional store)
// ─────────────────────────────────────────────────────────────────────────────

func getLesson(ctx context.Context, q Querier, id string) (*lesson.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1`, lessonColumns)

	l, err := scanLesson(q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return l, nil
}

func countPublishedLessons(ctx context.Context, q Querier, lv level.Level) (int, error) {
	query := `
		SELECT COUNT(*) FROM lessons
		WHERE level = $1 AND status = $2 AND deleted_at IS NULL
	`

	var count int
	err := q.QueryRow(ctx, query, lv.String(), string(lesson.StatusPublished)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

func scanLesson(row pgx.Row) (*lesson.Lesson, error) {
	var (
		l      lesson.Lesson
		lv     string
		status string
	)

	err := row.Scan(
		&l.ID,
		&l.Title,
		&lv,
		&status,
		&l.Position,
		&l.DeletedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Level = level.Level(lv)
	l.Status = lesson.Status(status)
	return &l, nil
}
