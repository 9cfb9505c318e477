// Package lesson содержит доменную модель урока платформы Lingo.
package lesson

import (
	"errors"
	"strings"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет издательский статус урока.
type Status string

const (
	// StatusDraft - урок готовится и недоступен ученикам.
	StatusDraft Status = "draft"
	// StatusPublished - урок опубликован и участвует в прогрессе.
	StatusPublished Status = "published"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson представляет урок, закреплённый за уровнем обучения.
// В подсчёте повышения участвуют только опубликованные неудалённые уроки.
type Lesson struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Title - название урока.
	Title string

	// Level - уровень, к которому относится урок.
	Level level.Level

	// Status - издательский статус.
	Status Status

	// Position - порядковый номер урока внутри уровня.
	Position int

	// DeletedAt - время мягкого удаления (nil для живых уроков).
	DeletedAt *time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Доменные ошибки урока.
var (
	// ErrInvalidTitle - невалидное название урока.
	ErrInvalidTitle = errors.New("invalid lesson title: must be 1-200 chars")

	// ErrAlreadyDeleted - урок уже удалён.
	ErrAlreadyDeleted = errors.New("lesson already deleted")
)

// NewLessonParams содержит параметры для создания урока.
type NewLessonParams struct {
	ID       string
	Title    string
	Level    level.Level
	Position int
}

// NewLesson создаёт новый урок в статусе черновика.
func NewLesson(params NewLessonParams) (*Lesson, error) {
	if params.ID == "" {
		return nil, errors.New("lesson id is required")
	}

	title := strings.TrimSpace(params.Title)
	if len(title) == 0 || len(title) > 200 {
		return nil, ErrInvalidTitle
	}

	now := time.Now().UTC()

	return &Lesson{
		ID:        params.ID,
		Title:     title,
		Level:     params.Level,
		Status:    StatusDraft,
		Position:  params.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsPublished возвращает true для опубликованного неудалённого урока.
func (l *Lesson) IsPublished() bool {
	return l.Status == StatusPublished && l.DeletedAt == nil
}

// Publish публикует урок.
func (l *Lesson) Publish() {
	l.Status = StatusPublished
	l.UpdatedAt = time.Now().UTC()
}

// Unpublish возвращает урок в черновики.
func (l *Lesson) Unpublish() {
	l.Status = StatusDraft
	l.UpdatedAt = time.Now().UTC()
}

// Delete выполняет мягкое удаление урока.
func (l *Lesson) Delete() error {
	if l.DeletedAt != nil {
		return ErrAlreadyDeleted
	}

	now := time.Now().UTC()
	l.DeletedAt = &now
	l.UpdatedAt = now
	return nil
}
