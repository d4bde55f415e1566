package model

// UploadState is the orchestrator state of one entity kind.
type UploadState string

const (
	StateIdle       UploadState = "IDLE"
	StateReading    UploadState = "READING"
	StateValidating UploadState = "VALIDATING"
	StateSubmitting UploadState = "SUBMITTING"
	StateDone       UploadState = "DONE"
	StateFailed     UploadState = "FAILED"
)

// Busy reports whether a run is in flight in this state.
func (s UploadState) Busy() bool {
	return s == StateReading || s == StateValidating || s == StateSubmitting
}

type ServerRejected struct {
	RowIndex int             `json:"rowIndex"`
	Record   CandidateRecord `json:"record"`
	Reason   string          `json:"reason"`
}

// SubmitResult is what the backend made of one batch.
type SubmitResult struct {
	AcceptedCount  int              `json:"acceptedCount"`
	ServerRejected []ServerRejected `json:"serverRejected"`
}

// BatchResult is the single outcome of one upload.
type BatchResult struct {
	Kind           EntityKind       `json:"kind"`
	State          UploadState      `json:"state"`
	TotalRows      int              `json:"totalRows"`
	AcceptedCount  int              `json:"acceptedCount"`
	RejectedRows   []RejectedRow    `json:"rejectedRows"`
	ServerRejected []ServerRejected `json:"serverRejected"`
	Error          string           `json:"error,omitempty"`
}
