package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/fitarena-system/cache"
	"github.com/Dosada05/fitarena-system/config"
	"github.com/Dosada05/fitarena-system/db"
	"github.com/Dosada05/fitarena-system/handlers"
	"github.com/Dosada05/fitarena-system/live"
	"github.com/Dosada05/fitarena-system/metrics"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/Dosada05/fitarena-system/repositories"
	api "github.com/Dosada05/fitarena-system/routes"
	"github.com/Dosada05/fitarena-system/services"
	"github.com/Dosada05/fitarena-system/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
)

const statusRollInterval = 30 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных и миграции
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to apply database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket-хаба для live-обновлений лидербордов
	liveHub := live.NewHub(logger)
	go liveHub.Run()
	logger.Info("live hub started")

	// Redis-кэш лидербордов. Без Redis сервис работает через SQL-агрегацию.
	var leaderboardCache *cache.LeaderboardCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, leaderboard cache disabled", slog.Any("error", err))
		} else {
			leaderboardCache = cache.NewLeaderboardCache(redisClient)
			logger.Info("redis leaderboard cache enabled", slog.String("addr", cfg.RedisAddr))
		}
	}

	// Шлюз платёжного провайдера
	paymentGateway := payments.NewHTTPGateway(cfg.PaymentAPIURL, cfg.PaymentAPIKey)

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	poolRepo := repositories.NewPostgresPrizePoolRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	payoutRepo := repositories.NewPostgresPayoutRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	var emailService *services.EmailService
	if cfg.SMTPHost != "" {
		emailService = services.NewEmailService(cfg)
		logger.Info("email delivery enabled", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Info("email delivery disabled")
	}

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, cloudflareUploader, logger)
	competitionService := services.NewCompetitionService(
		dbConn,
		competitionRepo,
		teamRepo,
		poolRepo,
		participantRepo,
		paymentGateway,
		cloudflareUploader,
		logger,
	)
	invitationService := services.NewInvitationService(
		dbConn,
		invitationRepo,
		competitionRepo,
		poolRepo,
		participantRepo,
		teamRepo,
		userRepo,
		paymentGateway,
		emailService,
		cloudflareUploader,
		logger,
	)
	leaderboardService := services.NewLeaderboardService(
		competitionRepo,
		participantRepo,
		teamRepo,
		scoreRepo,
		leaderboardCache,
		liveHub,
		cloudflareUploader,
		logger,
	)
	settlementService := services.NewSettlementService(
		dbConn,
		competitionRepo,
		poolRepo,
		scoreRepo,
		payoutRepo,
		userRepo,
		emailService,
		liveHub,
		cloudflareUploader,
		logger,
	)
	// Типизированный nil в интерфейсе прошёл бы проверку != nil.
	var boardInvalidator services.LeaderboardInvalidator
	if leaderboardCache != nil {
		boardInvalidator = leaderboardCache
	}
	maintenanceService := services.NewMaintenanceService(
		competitionRepo,
		settlementService,
		liveHub,
		boardInvalidator,
		time.Duration(cfg.DraftTTLHours)*time.Hour,
		logger,
	)
	logger.Info("services initialized")

	// Планировщик фоновых задач: перевод статусов и чистка брошенных черновиков
	runJob := func(name string, fn func(context.Context) error) {
		start := time.Now()
		err := fn(context.Background())
		metrics.RecordJobRun(name, time.Since(start), err == nil)
		if err != nil {
			logger.Error("background job failed", slog.String("job", name), slog.Any("error", err))
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(statusRollInterval),
		gocron.NewTask(func() { runJob("roll_forward_statuses", maintenanceService.RollForwardStatuses) }),
		gocron.WithName("roll_forward_statuses"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		logger.Error("failed to schedule status roll-forward job", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() { runJob("sweep_stale_drafts", maintenanceService.SweepStaleDrafts) }),
		gocron.WithName("sweep_stale_drafts"),
	); err != nil {
		logger.Error("failed to schedule draft sweep job", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()
	logger.Info("background scheduler started", slog.Duration("status_roll_interval", statusRollInterval))

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	competitionHandler := handlers.NewCompetitionHandler(competitionService, leaderboardService, settlementService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	webSocketHandler := handlers.NewWebSocketHandler(liveHub, logger)
	adminHandler := handlers.NewAdminHandler(maintenanceService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		competitionHandler,
		invitationHandler,
		webSocketHandler,
		adminHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
