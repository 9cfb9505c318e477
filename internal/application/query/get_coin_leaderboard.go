package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COIN LEADERBOARD QUERY
// Рейтинг по балансу монет. Горячий путь читает из Redis sorted set;
// при промахе рейтинг строится из PostgreSQL и кеш перестраивается.
// PostgreSQL остаётся источником истины.
// ══════════════════════════════════════════════════════════════════════════════

// CoinLeaderboardCache - контракт кеша рейтинга монет.
// Реализация находится в infrastructure/persistence/redis.
type CoinLeaderboardCache interface {
	// TopN возвращает топ-N записей из кеша.
	TopN(ctx context.Context, limit int) ([]learner.CoinEntry, error)

	// Rebuild заменяет кеш полным снимком.
	Rebuild(ctx context.Context, entries []learner.CoinEntry) error
}

// GetCoinLeaderboardQuery содержит параметры запроса рейтинга монет.
type GetCoinLeaderboardQuery struct {
	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetCoinLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// CoinEntryDTO - запись рейтинга монет.
type CoinEntryDTO struct {
	// Rank - позиция в рейтинге (с 1).
	Rank int `json:"rank"`

	// LearnerID - внутренний ID ученика.
	LearnerID string `json:"learner_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// Coins - баланс монет.
	Coins int `json:"coins"`
}

// GetCoinLeaderboardResult содержит результат запроса рейтинга монет.
type GetCoinLeaderboardResult struct {
	// Entries - записи рейтинга.
	Entries []CoinEntryDTO `json:"entries"`

	// FromCache - получен ли результат из кеша.
	FromCache bool `json:"from_cache"`

	// GeneratedAt - момент формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCoinLeaderboardHandler обрабатывает запросы рейтинга монет.
type GetCoinLeaderboardHandler struct {
	learnerRepo learner.Repository
	cache       CoinLeaderboardCache
	logger      *logger.Logger
}

// rebuildLimit - размер снимка при перестройке кеша. Больше страницы
// запроса, чтобы соседние запросы тоже попадали в кеш.
const rebuildLimit = 100

// NewGetCoinLeaderboardHandler создаёт новый обработчик рейтинга монет.
func NewGetCoinLeaderboardHandler(
	learnerRepo learner.Repository,
	cache CoinLeaderboardCache,
	log *logger.Logger,
) *GetCoinLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetCoinLeaderboardHandler{
		learnerRepo: learnerRepo,
		cache:       cache,
		logger:      log.With(logger.Component("get_coin_leaderboard")),
	}
}

// Handle выполняет запрос рейтинга монет.
func (h *GetCoinLeaderboardHandler) Handle(ctx context.Context, query GetCoinLeaderboardQuery) (*GetCoinLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCoinLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	now := time.Now().UTC()

	// Горячий путь: кеш.
	if h.cache != nil {
		entries, err := h.cache.TopN(ctx, query.Limit)
		if err == nil {
			return h.buildResult(entries, true, now), nil
		}
		// Промах или сбой кеша - падаем на источник истины.
	}

	entries, err := h.learnerRepo.TopByCoins(ctx, rebuildLimit)
	if err != nil {
		return nil, err
	}

	// Перестраиваем кеш по возможности: следующий запрос попадёт в него.
	if h.cache != nil {
		if err := h.cache.Rebuild(ctx, entries); err != nil {
			h.logger.Warn("failed to rebuild coin leaderboard cache", logger.Err(err))
		}
	}

	if len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}

	return h.buildResult(entries, false, now), nil
}

func (h *GetCoinLeaderboardHandler) buildResult(entries []learner.CoinEntry, fromCache bool, now time.Time) *GetCoinLeaderboardResult {
	result := &GetCoinLeaderboardResult{
		Entries:     make([]CoinEntryDTO, 0, len(entries)),
		FromCache:   fromCache,
		GeneratedAt: now,
	}

	for i, e := range entries {
		result.Entries = append(result.Entries, CoinEntryDTO{
			Rank:        i + 1,
			LearnerID:   e.LearnerID,
			DisplayName: e.DisplayName,
			Coins:       int(e.Coins),
		})
	}

	return result
}
