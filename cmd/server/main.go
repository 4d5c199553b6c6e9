package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"autoplate-renamer/internal/analyzer"
	"autoplate-renamer/internal/config"
	"autoplate-renamer/internal/db"
	"autoplate-renamer/internal/folder"
	httphandler "autoplate-renamer/internal/http"
	"autoplate-renamer/internal/logger"
	"autoplate-renamer/internal/renamer"
	"autoplate-renamer/internal/repository"
	"autoplate-renamer/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger config yet
		boot := logger.New(config.LogConfig{Level: "info"})
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.Seed(ctx, database, cfg.Seed, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to seed database")
	}

	storageRoot, err := filepath.Abs(cfg.Storage.Root)
	if err != nil {
		appLogger.Fatal().Err(err).Str("root", cfg.Storage.Root).Msg("invalid storage root")
	}
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(storageRoot, 0o755); err != nil {
		appLogger.Fatal().Err(err).Str("root", storageRoot).Msg("failed to create storage root")
	}
	opener := folder.NewOpener(osFs, storageRoot)

	plateAnalyzer, err := analyzer.New(ctx, cfg, appLogger.With().Str("component", "analyzer").Logger())
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to create analyzer")
	}

	userRepo := repository.NewUserRepository(database)
	logRepo := repository.NewLogRepository(database)
	configRepo := repository.NewConfigRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWT, appLogger)
	userService := service.NewUserService(userRepo, cfg.Seed.DefaultPassword, appLogger)
	configService := service.NewConfigService(configRepo, cfg.Seed.PricePerRequest, appLogger)
	logService := service.NewLogService(logRepo, configService, appLogger)
	analysisService := service.NewAnalysisService(plateAnalyzer, appLogger)

	pipeline := renamer.NewPipeline(plateAnalyzer, logService, appLogger.With().Str("component", "renamer").Logger())
	renamerService := service.NewRenamerService(ctx, opener, pipeline, userService, cfg.Watch.Interval, appLogger.With().Str("component", "renamer").Logger())

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	handler := httphandler.NewHandler(
		authService,
		userService,
		logService,
		configService,
		analysisService,
		renamerService,
		cfg,
		appLogger,
	)
	handler.Register(router, httphandler.AuthMiddleware(authService))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("storage_root", storageRoot).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("HTTP server forced to shut down")
	}
	renamerService.Close()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	appLogger.Info().Msg("server stopped")
}
