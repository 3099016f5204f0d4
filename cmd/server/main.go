package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/database"
	"github.com/quiznexusai/quiznexus-backend/internal/handler"
	"github.com/quiznexusai/quiznexus-backend/internal/logger"
	"github.com/quiznexusai/quiznexus-backend/internal/repository"
	"github.com/quiznexusai/quiznexus-backend/internal/router"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
	"github.com/quiznexusai/quiznexus-backend/internal/validator"
	"github.com/quiznexusai/quiznexus-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting QuizNexus Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	keyRepo := repository.NewAnswerKeyRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	statsRepo := repository.NewStatisticsRepository(pool)
	schoolRepo := repository.NewSchoolRepository(pool)

	// Services. Sealed attempts reach the aggregate through the redis
	// queue so session sealing never waits on the statistics lock.
	authService := service.NewAuthService(cfg)
	statsService := service.NewStatisticsService(statsRepo, log)
	statsQueue := worker.NewStatisticsQueue(rdb)
	sessionService := service.NewExamSessionService(
		questionRepo, keyRepo, userRepo, attemptRepo, schoolRepo,
		statsQueue, rdb, cfg, log,
	)

	// Handlers
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userRepo),
		Exam:       handler.NewExamHandler(sessionService),
		Question:   handler.NewQuestionHandler(questionRepo, keyRepo),
		Result:     handler.NewResultHandler(attemptRepo),
		Statistics: handler.NewStatisticsHandler(statsService),
		School:     handler.NewSchoolHandler(schoolRepo),
		Monitor:    handler.NewMonitorHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())

	statsWorker := worker.NewStatisticsWorker(statsService, rdb, log)
	go statsWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
