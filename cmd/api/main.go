package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"onduty-admin/internal/api"
	"onduty-admin/internal/batch"
	"onduty-admin/internal/config"
	"onduty-admin/internal/db"
	"onduty-admin/internal/excel"
	"onduty-admin/internal/logger"
	"onduty-admin/internal/pipeline"
	"onduty-admin/internal/queue"
	"onduty-admin/internal/schema"
	"onduty-admin/internal/storage"
	"onduty-admin/internal/submit"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting API server")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := db.Migrate(context.Background(), database); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	repo := db.NewRepository(database)

	// Initialize Redis client
	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	producer := queue.NewProducer(redisClient, &cfg.Redis)

	s3Storage, err := storage.NewS3Storage(&cfg.Storage.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	// Import pipeline
	validator := schema.NewValidator(schema.WithBatchRange(cfg.Import.MinBatchYear, cfg.Import.BatchYearLookahead))
	client := submit.NewClient(&cfg.Backend, submit.NewSessionProvider(&cfg.Backend))
	orchestrator := pipeline.NewOrchestrator(
		excel.NewDecoder(),
		batch.NewPartitioner(validator),
		client,
		pipeline.WithObserver(producer),
	)

	roles := api.NewRoleHandler(validator, client)
	handler := api.NewHandler(repo, s3Storage, producer, orchestrator, roles, cfg)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Import.MaxFileSize
	router.Use(api.CORSMiddleware(cfg.Server.AllowOrigins))
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	api.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
