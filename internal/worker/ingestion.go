package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"onduty-admin/internal/db"
	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/internal/queue"
	"onduty-admin/internal/storage"
	"onduty-admin/pkg/errors"

	"github.com/rs/zerolog"
)

// Runner is the upload pipeline as seen by the worker.
type Runner interface {
	Run(ctx context.Context, kind model.EntityKind, data []byte) (*model.BatchResult, error)
}

// Enqueuer puts a job back on the import queue.
type Enqueuer interface {
	EnqueueImportJob(ctx context.Context, job model.ImportJob) error
}

// QueueConsumer feeds raw queue messages to a handler until ctx is done.
type QueueConsumer interface {
	ConsumeImportQueue(ctx context.Context, handler queue.MessageHandler) error
}

type IngestionWorker struct {
	repo         db.Repository
	storage      storage.Storage
	runner       Runner
	enqueuer     Enqueuer
	consumer     QueueConsumer
	workerPool   *WorkerPool
	requeueDelay time.Duration
	consuming    sync.WaitGroup
	log          zerolog.Logger
}

func NewIngestionWorker(
	repo db.Repository,
	storage storage.Storage,
	runner Runner,
	enqueuer Enqueuer,
	consumer QueueConsumer,
	workerCount int,
	requeueDelay time.Duration,
) *IngestionWorker {
	return &IngestionWorker{
		repo:         repo,
		storage:      storage,
		runner:       runner,
		enqueuer:     enqueuer,
		consumer:     consumer,
		workerPool:   NewWorkerPool(workerCount),
		requeueDelay: requeueDelay,
		log:          logger.Get().With().Str("component", "ingestion").Logger(),
	}
}

func (w *IngestionWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting ingestion worker")

	w.consuming.Add(1)
	defer w.consuming.Done()

	// Jobs already popped from Redis run to completion; Stop drains them.
	w.workerPool.Start(context.WithoutCancel(ctx))

	return w.consumer.ConsumeImportQueue(ctx, w.handleMessage)
}

func (w *IngestionWorker) Stop() {
	w.log.Info().Msg("Stopping ingestion worker")
	// the consumer must be gone before the pool's queue is closed
	w.consuming.Wait()
	w.workerPool.Stop()
}

func (w *IngestionWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal import job")
		return err
	}
	if job.ImportID == "" || job.StorageKey == "" {
		return fmt.Errorf("import job is missing import_id or storage_key")
	}

	w.log.Info().
		Str("import_id", job.ImportID).
		Str("kind", string(job.Kind)).
		Msg("Processing import job")

	return w.workerPool.Submit(func(ctx context.Context) error {
		return w.processImport(ctx, job)
	})
}

func (w *IngestionWorker) processImport(ctx context.Context, job model.ImportJob) error {
	log := w.log.With().Str("import_id", job.ImportID).Logger()

	if err := w.repo.UpdateImportStatus(ctx, job.ImportID, model.ImportStatusProcessing, nil); err != nil {
		log.Error().Err(err).Msg("Failed to mark import processing")
		return err
	}

	log.Debug().Str("key", job.StorageKey).Msg("Downloading file from storage")
	data, err := w.download(ctx, job.StorageKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to download file")
		w.markFailed(ctx, job.ImportID, err)
		return err
	}

	result, err := w.runner.Run(ctx, job.Kind, data)
	if stderrors.Is(err, errors.ErrUploadInProgress) {
		log.Info().Dur("delay", w.requeueDelay).Msg("Upload in progress for kind, requeueing job")
		return w.requeue(ctx, job)
	}

	status := model.ImportStatusDone
	if err != nil {
		status = model.ImportStatusFailed
		log.Warn().Err(err).Msg("Import run failed")
	}

	if result != nil {
		if saveErr := w.repo.SaveImportResult(ctx, job.ImportID, status, result); saveErr != nil {
			log.Error().Err(saveErr).Msg("Failed to save import result")
			return saveErr
		}
	} else if err != nil {
		w.markFailed(ctx, job.ImportID, err)
	}

	if delErr := w.storage.Delete(ctx, job.StorageKey); delErr != nil {
		log.Warn().Err(delErr).Msg("Failed to delete staged file")
	}

	if err != nil {
		return err
	}

	log.Info().
		Int("total_rows", result.TotalRows).
		Int("accepted", result.AcceptedCount).
		Msg("Import processed successfully")
	return nil
}

func (w *IngestionWorker) download(ctx context.Context, key string) ([]byte, error) {
	reader, err := w.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	return data, nil
}

func (w *IngestionWorker) requeue(ctx context.Context, job model.ImportJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.requeueDelay):
	}

	if err := w.repo.UpdateImportStatus(ctx, job.ImportID, model.ImportStatusQueued, nil); err != nil {
		return err
	}
	return w.enqueuer.EnqueueImportJob(ctx, job)
}

func (w *IngestionWorker) markFailed(ctx context.Context, id string, cause error) {
	errorMsg := cause.Error()
	if err := w.repo.UpdateImportStatus(ctx, id, model.ImportStatusFailed, &errorMsg); err != nil {
		w.log.Error().Err(err).Str("import_id", id).Msg("Failed to mark import failed")
	}
}
