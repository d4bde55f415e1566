package api

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"onduty-admin/internal/config"
	"onduty-admin/internal/db"
	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/internal/pipeline"
	"onduty-admin/internal/storage"
	"onduty-admin/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Runner interface {
	Run(ctx context.Context, kind model.EntityKind, data []byte) (*model.BatchResult, error)
}

type JobEnqueuer interface {
	EnqueueImportJob(ctx context.Context, job model.ImportJob) error
}

type Handler struct {
	repo     db.Repository
	storage  storage.Storage
	producer JobEnqueuer
	runner   Runner
	roles    *RoleHandler
	cfg      *config.Config
	log      zerolog.Logger
}

func NewHandler(
	repo db.Repository,
	storage storage.Storage,
	producer JobEnqueuer,
	runner Runner,
	roles *RoleHandler,
	cfg *config.Config,
) *Handler {
	return &Handler{
		repo:     repo,
		storage:  storage,
		producer: producer,
		runner:   runner,
		roles:    roles,
		cfg:      cfg,
		log:      logger.Get(),
	}
}

// readUpload returns the kind and the bytes of the multipart "file" field,
// or writes the error response and returns ok=false.
func (h *Handler) readUpload(c *gin.Context) (model.EntityKind, string, []byte, bool) {
	kind, err := model.ParseEntityKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown entity kind", "kind": c.Param("kind")})
		return "", "", nil, false
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return "", "", nil, false
	}

	if fileHeader.Size > h.cfg.Import.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":    "File too large",
			"max_size": h.cfg.Import.MaxFileSize,
		})
		return "", "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return "", "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return "", "", nil, false
	}

	return kind, fileHeader.Filename, data, true
}

// UploadImport runs the whole pipeline within the request.
func (h *Handler) UploadImport(c *gin.Context) {
	kind, fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	record := &model.ImportRecord{
		ID:       uuid.NewString(),
		Kind:     kind,
		Status:   model.ImportStatusProcessing,
		FileName: fileName,
	}
	if err := h.repo.CreateImport(ctx, record); err != nil {
		h.log.Error().Err(err).Msg("Failed to record import")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log := h.log.With().Str("import_id", record.ID).Str("kind", string(kind)).Logger()
	c.Header("X-Import-ID", record.ID)

	result, err := h.runner.Run(ctx, kind, data)
	if stderrors.Is(err, errors.ErrUploadInProgress) {
		msg := err.Error()
		if updErr := h.repo.UpdateImportStatus(ctx, record.ID, model.ImportStatusFailed, &msg); updErr != nil {
			log.Error().Err(updErr).Msg("Failed to update import status")
		}
		c.JSON(http.StatusConflict, gin.H{"error": "An upload for this kind is already in progress"})
		return
	}

	status := model.ImportStatusDone
	if err != nil {
		status = model.ImportStatusFailed
	}
	if result != nil {
		// the run outlives a client disconnect, so its audit record must too
		if saveErr := h.repo.SaveImportResult(context.WithoutCancel(ctx), record.ID, status, result); saveErr != nil {
			log.Error().Err(saveErr).Msg("Failed to save import result")
		}
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case pipeline.IsDecodeError(err):
		c.JSON(http.StatusUnprocessableEntity, result)
	case pipeline.IsSubmissionError(err):
		c.JSON(http.StatusBadGateway, result)
	default:
		log.Error().Err(err).Msg("Import failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// UploadImportAsync stages the file and hands it to the ingestion worker.
func (h *Handler) UploadImportAsync(c *gin.Context) {
	kind, fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	id := uuid.NewString()
	key := storage.ImportKey(h.cfg.Storage.S3.KeyPrefix, id, fileName)

	if err := h.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to stage upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	record := &model.ImportRecord{
		ID:         id,
		Kind:       kind,
		Status:     model.ImportStatusQueued,
		FileName:   fileName,
		StorageKey: &key,
	}
	if err := h.repo.CreateImport(ctx, record); err != nil {
		h.log.Error().Err(err).Msg("Failed to record import")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	job := model.ImportJob{ImportID: id, Kind: kind, StorageKey: key}
	if err := h.producer.EnqueueImportJob(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		msg := "failed to enqueue import job"
		if updErr := h.repo.UpdateImportStatus(ctx, id, model.ImportStatusFailed, &msg); updErr != nil {
			h.log.Error().Err(updErr).Msg("Failed to update import status")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import job"})
		return
	}

	h.log.Info().
		Str("import_id", id).
		Str("kind", string(kind)).
		Str("file_name", fileName).
		Msg("Import job enqueued")

	c.JSON(http.StatusAccepted, model.AsyncImportResponse{ImportID: id, Status: model.ImportStatusQueued})
}

func (h *Handler) GetImport(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import ID"})
		return
	}

	record, err := h.repo.GetImport(c.Request.Context(), id)
	if stderrors.Is(err, errors.ErrImportNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("import_id", id).Msg("Failed to get import")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}
