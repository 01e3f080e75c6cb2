package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/cache"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/config"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/handlers"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/middleware"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories/postgres"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/services"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/abhiroy829429/AI-Proctoring-System/pkg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger utils.Logger
	if cfg.IsDevelopment() {
		logger = utils.NewDevelopmentLogger()
	} else {
		logger = utils.NewDefaultLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return
	}
	if err := db.AutoMigrate(&models.Session{}, &models.Event{}); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		return
	}

	// The cache is an optimization; the service runs without redis.
	var cacheService cache.CacheService
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, session cache disabled", "error", err)
	} else {
		cacheService = cache.NewRedisCache(redisClient, logger)
		defer redisClient.Close()
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create alert publisher", "error", err)
		return
	}
	defer publisher.Close()

	validator := utils.NewValidator()
	sessionRepo := postgres.NewSessionPostgreSQL(db)
	eventRepo := postgres.NewEventPostgreSQL(db)

	sessionService := services.NewSessionService(sessionRepo, eventRepo, cacheService, publisher, slogLogger, validator)
	eventService := services.NewEventService(sessionRepo, eventRepo, cacheService, publisher, slogLogger, validator)
	reportService := services.NewReportService(sessionService, slogLogger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg)))

	manager := handlers.NewHandlerManager(sessionService, eventService, reportService, logger, cfg.IsDevelopment())
	manager.SetupRoutes(router, middleware.ReviewAuth(cfg.Casdoor, logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Proctoring service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

// corsConfig is permissive in development and origin-listed otherwise.
func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if cfg.IsDevelopment() || len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return corsCfg
}
