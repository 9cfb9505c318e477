package query

import (
	"context"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLATFORM STATS QUERY
// Сводная статистика платформы для админ-панели: число учеников,
// завершений и начисленных монет.
// ══════════════════════════════════════════════════════════════════════════════

// GetPlatformStatsQuery содержит параметры запроса статистики.
// Параметров нет, тип сохраняет единообразие сигнатур обработчиков.
type GetPlatformStatsQuery struct{}

// GetPlatformStatsResult содержит сводную статистику платформы.
type GetPlatformStatsResult struct {
	// TotalLearners - всего зарегистрированных учеников.
	TotalLearners int `json:"total_learners"`

	// TotalCompletions - всего завершений уроков.
	TotalCompletions int `json:"total_completions"`

	// TotalCoinsAwarded - всего монет начислено за уроки
	// (бонусы за повышение сюда не входят).
	TotalCoinsAwarded int `json:"total_coins_awarded"`

	// GeneratedAt - момент формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetPlatformStatsHandler обрабатывает запросы статистики платформы.
type GetPlatformStatsHandler struct {
	learnerRepo learner.Repository
	completions progression.Reader
	logger      *logger.Logger
}

// NewGetPlatformStatsHandler создаёт новый обработчик статистики.
func NewGetPlatformStatsHandler(
	learnerRepo learner.Repository,
	completions progression.Reader,
	log *logger.Logger,
) *GetPlatformStatsHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetPlatformStatsHandler{
		learnerRepo: learnerRepo,
		completions: completions,
		logger:      log.With(logger.Component("get_platform_stats")),
	}
}

// Handle выполняет запрос статистики платформы.
func (h *GetPlatformStatsHandler) Handle(ctx context.Context, _ GetPlatformStatsQuery) (*GetPlatformStatsResult, error) {
	learners, err := h.learnerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	completions, err := h.completions.TotalCompletions(ctx)
	if err != nil {
		return nil, err
	}

	coins, err := h.completions.TotalCoinsAwarded(ctx)
	if err != nil {
		return nil, err
	}

	return &GetPlatformStatsResult{
		TotalLearners:     learners,
		TotalCompletions:  completions,
		TotalCoinsAwarded: coins,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}
