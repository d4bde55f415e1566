package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"onduty-admin/internal/model"
	"onduty-admin/pkg/errors"
)

type Repository interface {
	CreateImport(ctx context.Context, record *model.ImportRecord) error
	UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, errorMessage *string) error
	SaveImportResult(ctx context.Context, id string, status model.ImportStatus, result *model.BatchResult) error
	GetImport(ctx context.Context, id string) (*model.ImportRecord, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateImport(ctx context.Context, record *model.ImportRecord) error {
	query := `INSERT INTO imports (id, kind, status, file_name, storage_key, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
	_, err := r.db.ExecContext(ctx, query, record.ID, record.Kind, record.Status, record.FileName, record.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to insert import: %w", err)
	}
	return nil
}

func (r *repository) UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, errorMessage *string) error {
	query := `UPDATE imports SET status = ?, error_message = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, errorMessage, id)
	return err
}

// SaveImportResult stores the final outcome together with its counters.
func (r *repository) SaveImportResult(ctx context.Context, id string, status model.ImportStatus, result *model.BatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var errorMessage *string
	if result.Error != "" {
		errorMessage = &result.Error
	}

	query := `UPDATE imports SET status = ?, total_rows = ?, accepted_count = ?, rejected_count = ?,
				server_rejected_count = ?, result = ?, error_message = ?, updated_at = NOW()
			  WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query, status, result.TotalRows, result.AcceptedCount,
		len(result.RejectedRows), len(result.ServerRejected), data, errorMessage, id)
	return err
}

func (r *repository) GetImport(ctx context.Context, id string) (*model.ImportRecord, error) {
	query := `SELECT id, kind, status, file_name, storage_key, total_rows, accepted_count, rejected_count,
				server_rejected_count, result, error_message, created_at, updated_at
			  FROM imports WHERE id = ?`

	var (
		record model.ImportRecord
		result []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.Kind, &record.Status, &record.FileName, &record.StorageKey,
		&record.TotalRows, &record.AcceptedCount, &record.RejectedCount,
		&record.ServerRejectedCount, &result, &record.ErrorMessage,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(result) > 0 {
		record.Result = &model.BatchResult{}
		if err := json.Unmarshal(result, record.Result); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
	}

	return &record, nil
}
