package model

import "time"

type ImportStatus string

const (
	ImportStatusQueued     ImportStatus = "QUEUED"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusDone       ImportStatus = "DONE"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// ImportRecord is the audit row kept for every upload.
type ImportRecord struct {
	ID                  string       `json:"id" db:"id"`
	Kind                EntityKind   `json:"kind" db:"kind"`
	Status              ImportStatus `json:"status" db:"status"`
	FileName            string       `json:"file_name" db:"file_name"`
	StorageKey          *string      `json:"storage_key,omitempty" db:"storage_key"`
	TotalRows           int          `json:"total_rows" db:"total_rows"`
	AcceptedCount       int          `json:"accepted_count" db:"accepted_count"`
	RejectedCount       int          `json:"rejected_count" db:"rejected_count"`
	ServerRejectedCount int          `json:"server_rejected_count" db:"server_rejected_count"`
	Result              *BatchResult `json:"result,omitempty" db:"result"`
	ErrorMessage        *string      `json:"error_message,omitempty" db:"error_message"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}
