package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/matchup-tracker/internal/api"
	"github.com/jstittsworth/matchup-tracker/internal/api/middleware"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/config"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis; the cache degrades to a no-op when unavailable
	var redisClient *redis.Client
	if opt, err := redis.ParseURL(cfg.RedisURL); err != nil {
		logrus.Warnf("Invalid Redis URL, caching disabled: %v", err)
	} else {
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Warnf("Redis unreachable, caching disabled: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	cacheService := services.NewCacheService(redisClient)

	// Stores
	snapshotStore := store.NewSnapshotStore(db)
	matchupStore := store.NewMatchupStore(db)
	resultStore := store.NewResultStore(db)
	filterStore := store.NewFilterStore(db)

	// Services
	detector := services.NewRoundCompletionDetector(snapshotStore, services.CompletionConfig{
		RequiredHoles:             cfg.RoundCompletionHoles,
		MinPlayersRequired:        cfg.MinPlayersRequired,
		MinCompletionPercentage:   cfg.MinCompletionPercentage,
		ConsiderWithdrawnComplete: cfg.ConsiderWithdrawnComplete,
		MinutesPerHole:            12,
		ActiveWindow:              72 * time.Hour,
	}, logger)

	processor := services.NewMatchupResultProcessor(snapshotStore, matchupStore, resultStore, services.ProcessorConfig{
		FallbackToPosition:   cfg.FallbackToPosition,
		AllowLowConfidence:   cfg.AllowLowConfidence,
		RequireCompleteRound: cfg.RequireCompleteRound,
	}, logger)

	analyzer := services.NewFilterAnalyzer(matchupStore, resultStore, filterStore, services.DefaultPresets(), logger)
	calculator := services.NewParlayConfidenceCalculator(cfg.RoundCompletionHoles, logger)
	notifier := services.NewRunNotifier(cfg, logger)

	historical := services.DefaultHistoricalConfig()
	historical.Window = time.Duration(cfg.HistoricalWindowDays) * 24 * time.Hour
	historical.Period = fmt.Sprintf("%dd", cfg.HistoricalWindowDays)

	pipeline := services.NewAutomatedPerformancePipeline(detector, processor, analyzer, resultStore, matchupStore, filterStore, notifier, services.PipelineConfig{
		Enabled:                cfg.PipelineEnabled,
		CheckInterval:          cfg.CheckInterval(),
		ProcessOnlyNewRounds:   cfg.ProcessOnlyNewRounds,
		EnableHistoricalUpdate: cfg.EnableHistoricalUpdate,
		Historical:             historical,
	}, logger)

	if cfg.PipelineEnabled {
		if err := pipeline.Start(); err != nil {
			logrus.Errorf("Failed to start pipeline: %v", err)
		}
		defer pipeline.Stop()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, db, &api.Services{
		Cache:      cacheService,
		Detector:   detector,
		Processor:  processor,
		Analyzer:   analyzer,
		Calculator: calculator,
		Pipeline:   pipeline,
	})

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
