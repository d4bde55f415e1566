package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
	"onduty-admin/internal/worker"
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

	log.Info().Str("version", cfg.App.Version).Msg("Starting ingestion worker")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	repo := db.NewRepository(database)

	// Initialize Redis client
	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	producer := queue.NewProducer(redisClient, &cfg.Redis)
	consumer := queue.NewConsumer(redisClient, &cfg.Redis)

	s3Storage, err := storage.NewS3Storage(&cfg.Storage.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	validator := schema.NewValidator(schema.WithBatchRange(cfg.Import.MinBatchYear, cfg.Import.BatchYearLookahead))
	orchestrator := pipeline.NewOrchestrator(
		excel.NewDecoder(),
		batch.NewPartitioner(validator),
		submit.NewClient(&cfg.Backend, submit.NewSessionProvider(&cfg.Backend)),
		pipeline.WithObserver(producer),
	)

	ingestionWorker := worker.NewIngestionWorker(
		repo,
		s3Storage,
		orchestrator,
		producer,
		consumer,
		cfg.Workers.Ingestion.Count,
		cfg.Workers.Ingestion.RequeueDelay,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ingestionWorker.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("Ingestion worker failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down ingestion worker...")

	cancel()
	ingestionWorker.Stop()

	log.Info().Msg("Ingestion worker exited")
}
