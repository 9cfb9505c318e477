// Package main - точка входа движка прогресса и геймификации Lingo.
//
// Движок ведёт прогресс учеников: завершение уроков с начислением монет,
// повышение уровня, подписки с ленивым понижением, серии дней и рейтинги.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, event bus
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Application layer
	"github.com/lingo-hub/lingo-learning-backend/internal/application/command"
	"github.com/lingo-hub/lingo-learning-backend/internal/application/eventhandler"
	"github.com/lingo-hub/lingo-learning-backend/internal/application/query"

	// Domain layer
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/progression"

	// Infrastructure layer
	"github.com/lingo-hub/lingo-learning-backend/internal/infrastructure/messaging"
	"github.com/lingo-hub/lingo-learning-backend/internal/infrastructure/persistence/postgres"
	"github.com/lingo-hub/lingo-learning-backend/internal/infrastructure/persistence/redis"

	// Packages
	"github.com/lingo-hub/lingo-learning-backend/config"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slogLog := setupSlog(cfg)
	log.Info("starting Lingo progression engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		dbConn, err = postgres.NewConnection(ctx, cfg.PostgresConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.MigrateOnStart {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed",
				logger.Int("applied", applied),
				logger.Int("total", len(status)),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache       *redis.Cache
		learnerCache     learner.Cache
		leaderboardCache *redis.CoinLeaderboardCache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(cfg.RedisCacheConfig())
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			learnerCache = redis.NewLearnerCache(redisCache)
			leaderboardCache = redis.NewCoinLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	var learnerRepo learner.Repository = postgres.NewLearnerRepository(dbConn)
	if learnerCache != nil {
		learnerRepo = redis.NewCachedLearnerRepository(learnerRepo, learnerCache, log)
	}
	lessonRepo := postgres.NewLessonRepository(dbConn)
	completionRepo := postgres.NewCompletionRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	progressionStore := postgres.NewProgressionStoreWithRetry(
		dbConn,
		cfg.Progression.TxMaxAttempts,
		cfg.Progression.TxRetryDelay,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = slogLog
	eventBusConfig.AsyncMode = cfg.EventBus.Async
	eventBusConfig.WorkerPoolSize = cfg.EventBus.Workers
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ДОМЕННЫЕ СПРАВОЧНИКИ
	// ─────────────────────────────────────────────────────────────────────────
	hierarchy := level.Default()
	catalog := learner.DefaultPlanCatalog()
	rewards := progression.Rewards{
		LessonCoins:    cfg.Progression.LessonCoins,
		PromotionBonus: cfg.Progression.PromotionBonus,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	registerLearnerCmd := command.NewRegisterLearnerHandler(learnerRepo, eventBus, log)
	selectLevelCmd := command.NewSelectLevelHandler(learnerRepo, eventBus, hierarchy, log)
	activateSubscriptionCmd := command.NewActivateSubscriptionHandler(learnerRepo, eventBus, catalog, log)
	completeLessonCmd := command.NewCompleteLessonHandler(
		progressionStore, streakRepo, eventBus, hierarchy, catalog, rewards, log,
	)
	recordActivityCmd := command.NewRecordActivityHandler(streakRepo, learnerRepo, eventBus, log)

	learnerProgressQuery := query.NewGetLearnerProgressHandler(learnerRepo, lessonRepo, completionRepo, streakRepo, log)
	availableLessonsQuery := query.NewGetAvailableLessonsHandler(learnerRepo, lessonRepo, completionRepo, hierarchy, log)
	evaluateSubscriptionQuery := query.NewEvaluateSubscriptionHandler(learnerRepo, catalog, log)
	myStreakQuery := query.NewGetMyStreakHandler(streakRepo, log)
	streakLeaderboardQuery := query.NewGetStreakLeaderboardHandler(streakRepo, log)
	platformStatsQuery := query.NewGetPlatformStatsHandler(learnerRepo, completionRepo, log)

	// Кеш рейтинга может отсутствовать - обработчик падает на PostgreSQL.
	var coinCache query.CoinLeaderboardCache
	if leaderboardCache != nil {
		coinCache = leaderboardCache
	}
	coinLeaderboardQuery := query.NewGetCoinLeaderboardHandler(learnerRepo, coinCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	var scoreUpdater eventhandler.CoinScoreUpdater
	if leaderboardCache != nil {
		scoreUpdater = leaderboardCache
	}
	lessonCompletedHandler := eventhandler.NewOnLessonCompletedHandler(
		learnerRepo, scoreUpdater, learnerCache, slogLog,
	)
	if err := eventBus.Subscribe(lessonCompletedHandler.EventType(), lessonCompletedHandler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe lesson completed handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ЗАПУСК
	// ─────────────────────────────────────────────────────────────────────────
	engine := &Engine{
		RegisterLearner:      registerLearnerCmd,
		SelectLevel:          selectLevelCmd,
		ActivateSubscription: activateSubscriptionCmd,
		CompleteLesson:       completeLessonCmd,
		RecordActivity:       recordActivityCmd,
		LearnerProgress:      learnerProgressQuery,
		AvailableLessons:     availableLessonsQuery,
		EvaluateSubscription: evaluateSubscriptionQuery,
		MyStreak:             myStreakQuery,
		StreakLeaderboard:    streakLeaderboardQuery,
		CoinLeaderboard:      coinLeaderboardQuery,
		PlatformStats:        platformStatsQuery,
	}
	_ = engine // Транспортный слой подключается поверх Engine.

	log.Info("Lingo progression engine is running",
		logger.Bool("redis", redisCache != nil),
		logger.Bool("event_bus_async", cfg.EventBus.Async),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...",
		logger.Duration("timeout", cfg.App.ShutdownTimeout),
	)

	// Event bus и база данных закрываются через defer.
	log.Info("shutdown completed")
	return nil
}

// Engine собирает обработчики команд и запросов движка в одном месте.
// Транспортный слой (HTTP, gRPC, бот) получает его целиком.
type Engine struct {
	RegisterLearner      *command.RegisterLearnerHandler
	SelectLevel          *command.SelectLevelHandler
	ActivateSubscription *command.ActivateSubscriptionHandler
	CompleteLesson       *command.CompleteLessonHandler
	RecordActivity       *command.RecordActivityHandler

	LearnerProgress      *query.GetLearnerProgressHandler
	AvailableLessons     *query.GetAvailableLessonsHandler
	EvaluateSubscription *query.EvaluateSubscriptionHandler
	MyStreak             *query.GetMyStreakHandler
	StreakLeaderboard    *query.GetStreakLeaderboardHandler
	CoinLeaderboard      *query.GetCoinLeaderboardHandler
	PlatformStats        *query.GetPlatformStatsHandler
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированный логгер приложения.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// setupSlog настраивает slog для event bus и обработчиков событий.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
