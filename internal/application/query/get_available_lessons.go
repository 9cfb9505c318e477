package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/lesson"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET AVAILABLE LESSONS QUERY
// Возвращает опубликованные уроки по уровням с пометками о завершении
// и доступе. Доступность уровня повторяет гейты завершения урока:
// сначала премиум-гейт, затем прогрессивная разблокировка для учеников
// без премиума (уровни выше текущего закрыты). Премиум-доступ открывает
// все уровни. Запрос ничего не запрещает: закрытый уровень возвращается
// с Accessible=false, а сами гейты срабатывают при попытке завершения.
// ══════════════════════════════════════════════════════════════════════════════

// GetAvailableLessonsQuery содержит параметры запроса уроков.
type GetAvailableLessonsQuery struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string

	// Now - момент оценки (по умолчанию текущее время).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetAvailableLessonsQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	return nil
}

// LessonDTO - запись урока в ответе.
type LessonDTO struct {
	// LessonID - внутренний ID урока.
	LessonID string `json:"lesson_id"`

	// Title - название урока.
	Title string `json:"title"`

	// Position - порядковый номер внутри уровня.
	Position int `json:"position"`

	// Completed - завершён ли урок учеником.
	Completed bool `json:"completed"`
}

// LevelGroupDTO - уроки одного уровня с пометкой доступности.
type LevelGroupDTO struct {
	// Level - код уровня.
	Level string `json:"level"`

	// Accessible - может ли ученик завершать уроки этого уровня
	// прямо сейчас. false для премиум-уровня без действующей подписки
	// и для уровней выше текущего у учеников без премиума.
	Accessible bool `json:"accessible"`

	// Lessons - уроки уровня в порядке позиций.
	Lessons []LessonDTO `json:"lessons"`

	// CompletedCount - сколько из них завершено.
	CompletedCount int `json:"completed_count"`
}

// GetAvailableLessonsResult содержит результат запроса уроков.
type GetAvailableLessonsResult struct {
	// LearnerID - внутренний ID ученика.
	LearnerID string `json:"learner_id"`

	// Level - текущий уровень ученика (пусто без уровня).
	Level string `json:"level,omitempty"`

	// Levels - группы уроков по уровням иерархии (пусто без уровня).
	Levels []LevelGroupDTO `json:"levels"`

	// GeneratedAt - момент формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetAvailableLessonsHandler обрабатывает запросы доступных уроков.
type GetAvailableLessonsHandler struct {
	learnerRepo learner.Repository
	lessonRepo  lessonLister
	completions completedLessonLister
	hierarchy   level.Hierarchy
	logger      *logger.Logger
}

// lessonLister - срез lesson.Repository, нужный этому запросу.
type lessonLister interface {
	ListPublishedByLevel(ctx context.Context, lv level.Level) ([]*lesson.Lesson, error)
}

// completedLessonLister - срез progression.Reader, нужный этому запросу.
type completedLessonLister interface {
	ListCompletedLessonIDs(ctx context.Context, learnerID string, lv level.Level) ([]string, error)
}

// NewGetAvailableLessonsHandler создаёт новый обработчик запроса уроков.
func NewGetAvailableLessonsHandler(
	learnerRepo learner.Repository,
	lessonRepo lessonLister,
	completions completedLessonLister,
	hierarchy level.Hierarchy,
	log *logger.Logger,
) *GetAvailableLessonsHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetAvailableLessonsHandler{
		learnerRepo: learnerRepo,
		lessonRepo:  lessonRepo,
		completions: completions,
		hierarchy:   hierarchy,
		logger:      log.With(logger.Component("get_available_lessons")),
	}
}

// Handle выполняет запрос доступных уроков.
func (h *GetAvailableLessonsHandler) Handle(ctx context.Context, query GetAvailableLessonsQuery) (*GetAvailableLessonsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetAvailableLessons", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	l, err := h.learnerRepo.GetByID(ctx, query.LearnerID)
	if err != nil {
		return nil, err
	}

	// Ленивая сверка подписки с сохранением понижения.
	decision := l.ReconcileSubscription(now)
	if decision.Downgraded {
		if err := h.learnerRepo.Update(ctx, l); err != nil {
			h.logger.Warn("failed to persist lazy downgrade",
				logger.LearnerID(l.ID),
				logger.Err(err),
			)
		}
	}

	result := &GetAvailableLessonsResult{
		LearnerID:   l.ID,
		Levels:      []LevelGroupDTO{},
		GeneratedAt: now,
	}

	// Без выбранного уровня список пуст - это не ошибка.
	if !l.HasLevel() {
		return result, nil
	}
	current := *l.CurrentLevel
	result.Level = current.String()
	currentRank := h.hierarchy.Rank(current)

	for _, lv := range h.hierarchy.Levels() {
		group := LevelGroupDTO{
			Level:      lv.String(),
			Accessible: h.levelAccessible(lv, currentRank, decision.HasAccess),
			Lessons:    []LessonDTO{},
		}

		lessons, err := h.lessonRepo.ListPublishedByLevel(ctx, lv)
		if err != nil {
			return nil, err
		}

		completedIDs, err := h.completions.ListCompletedLessonIDs(ctx, l.ID, lv)
		if err != nil {
			return nil, err
		}
		completed := make(map[string]bool, len(completedIDs))
		for _, id := range completedIDs {
			completed[id] = true
		}

		for _, lsn := range lessons {
			dto := LessonDTO{
				LessonID:  lsn.ID,
				Title:     lsn.Title,
				Position:  lsn.Position,
				Completed: completed[lsn.ID],
			}
			if dto.Completed {
				group.CompletedCount++
			}
			group.Lessons = append(group.Lessons, dto)
		}

		result.Levels = append(result.Levels, group)
	}

	return result, nil
}

// levelAccessible повторяет порядок гейтов завершения: премиум-гейт
// проверяется первым, прогрессивная разблокировка действует только
// для учеников без премиума. Уровни на текущем и ниже открыты всем.
func (h *GetAvailableLessonsHandler) levelAccessible(lv level.Level, currentRank int, hasAccess bool) bool {
	if h.hierarchy.IsPremium(lv) && !hasAccess {
		return false
	}
	if !hasAccess && h.hierarchy.Rank(lv) > currentRank {
		return false
	}
	return true
}
