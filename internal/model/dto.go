package model

import "time"

type ImportJob struct {
	ImportID   string     `json:"import_id"`
	Kind       EntityKind `json:"kind"`
	StorageKey string     `json:"storage_key"`
}

// MutationEvent tells list views that records of Kind were created.
type MutationEvent struct {
	Kind          EntityKind `json:"kind"`
	AcceptedCount int        `json:"accepted_count"`
	At            time.Time  `json:"at"`
}

type AsyncImportResponse struct {
	ImportID string       `json:"import_id"`
	Status   ImportStatus `json:"status"`
}

// BulkCreateData is the "data" member of the bulk-create tRPC envelope.
type BulkCreateData struct {
	Count  int            `json:"count"`
	Failed []FailedRecord `json:"failed,omitempty"`
}

// FailedRecord references a sent record either by its position in the
// request array or by its identity key.
type FailedRecord struct {
	Index  *int   `json:"index,omitempty"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

type TRPCError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Data    struct {
		Code       string `json:"code"`
		HTTPStatus int    `json:"httpStatus"`
	} `json:"data"`
}
