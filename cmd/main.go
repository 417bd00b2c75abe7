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

	"github.com/affendiariffin/TO-Bot/config"
	"github.com/affendiariffin/TO-Bot/db"
	"github.com/affendiariffin/TO-Bot/handlers"
	"github.com/affendiariffin/TO-Bot/middleware"
	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/affendiariffin/TO-Bot/repositories"
	api "github.com/affendiariffin/TO-Bot/routes"
	"github.com/affendiariffin/TO-Bot/services"
	"github.com/affendiariffin/TO-Bot/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	wsHub := pairing.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	regRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	overrideRepo := repositories.NewPostgresOverrideRepository(dbConn)
	ritualRepo := repositories.NewPostgresRitualRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo, userRepo)
	standingsService := services.NewStandingsService(eventRepo, regRepo, gameRepo, wsHub)
	ritualService := services.NewRitualService(ritualRepo, wsHub, cfg.RitualWaitWindow)
	eventService := services.NewEventService(
		eventRepo,
		regRepo,
		roundRepo,
		userRepo,
		teamRepo,
		standingsService,
		cloudflareUploader,
		logger,
	)
	roundService := services.NewRoundService(
		txManager,
		eventRepo,
		regRepo,
		roundRepo,
		gameRepo,
		ritualRepo,
		teamRepo,
		ritualService,
		standingsService,
		wsHub,
		logger,
		cfg.RoundDuration,
	)
	gameService := services.NewGameService(
		txManager,
		gameRepo,
		roundRepo,
		overrideRepo,
		roundService,
		standingsService,
		wsHub,
		logger,
		cfg.AutoConfirmWindow,
	)
	dashboardService := services.NewDashboardService(userRepo, eventRepo, roundRepo, gameRepo, ritualRepo)
	logger.Info("services initialized")

	// Periodic sweeps: deadline warnings and reported-result auto-confirm.
	go runSweep(logger, "deadline", cfg.DeadlineCheckInterval, roundService.CheckDeadlines)
	go runSweep(logger, "auto-confirm", cfg.AutoConfirmInterval, gameService.CheckAutoConfirm)

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey, cfg.TokenTTL)
	authHandler := handlers.NewAuthHandler(authService, auth)
	eventHandler := handlers.NewEventHandler(eventService)
	roundHandler := handlers.NewRoundHandler(roundService)
	gameHandler := handlers.NewGameHandler(gameService)
	ritualHandler := handlers.NewRitualHandler(ritualService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	teamHandler := handlers.NewTeamHandler(teamService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		auth,
		authHandler,
		eventHandler,
		roundHandler,
		gameHandler,
		ritualHandler,
		standingsHandler,
		teamHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

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

func runSweep(logger *slog.Logger, name string, interval time.Duration, sweep func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("sweep started", slog.String("sweep", name), slog.Duration("interval", interval))

	for range ticker.C {
		if err := sweep(context.Background()); err != nil {
			logger.Error("sweep run failed", slog.String("sweep", name), slog.Any("error", err))
		}
	}
}
