package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUnreadableFile    = errors.New("unreadable spreadsheet file")
	ErrUnknownEntityKind = errors.New("unknown entity kind")
	ErrUnknownRole       = errors.New("unknown role")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrUploadInProgress  = errors.New("upload already in progress")
	ErrImportNotFound    = errors.New("import not found")
	ErrPoolFull          = errors.New("worker pool queue full")
)

type DecodeErrorKind string

const (
	UnreadableFile DecodeErrorKind = "UnreadableFile"
)

// DecodeError is the only error the spreadsheet decoder returns.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode error (%s)", e.Kind)
	}
	return fmt.Sprintf("decode error (%s): %s", e.Kind, e.Err.Error())
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

func (e DecodeError) Is(target error) bool {
	return target == ErrUnreadableFile && e.Kind == UnreadableFile
}

func NewDecodeError(err error) error {
	return DecodeError{Kind: UnreadableFile, Err: err}
}

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// SubmissionError reports that a batch never reached a definite outcome on the
// backend. The whole batch counts as failed.
type SubmissionError struct {
	Status  int // zero when no response was received
	Message string
	Err     error
}

func (e SubmissionError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", e.Status, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("submission failed: %s - %s", msg, e.Err.Error())
	}
	return fmt.Sprintf("submission failed: %s", msg)
}

func (e SubmissionError) Unwrap() error {
	return e.Err
}

func NewSubmissionError(err error, status int, message string) error {
	return SubmissionError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// ServerRejection is a record the backend refused while accepting the batch.
type ServerRejection struct {
	Key    string
	Reason string
}

func (e ServerRejection) Error() string {
	return fmt.Sprintf("rejected by server: %s: %s", e.Key, e.Reason)
}
