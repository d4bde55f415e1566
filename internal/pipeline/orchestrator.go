package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"onduty-admin/internal/batch"
	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/pkg/errors"

	"github.com/rs/zerolog"
)

// Decoder turns spreadsheet bytes into header-keyed rows.
type Decoder interface {
	Decode(data []byte) ([]model.RawRow, error)
}

// Submitter persists accepted records on the backend.
type Submitter interface {
	Submit(ctx context.Context, kind model.EntityKind, records []model.CandidateRecord) (*model.SubmitResult, error)
}

// MutationObserver learns about runs that created records so list views can
// refresh. Errors are logged and never fail the run.
type MutationObserver interface {
	OnMutation(ctx context.Context, event model.MutationEvent) error
}

// StateListener sees every transition of every kind.
type StateListener func(kind model.EntityKind, from, to model.UploadState)

// transitions lists the legal moves between upload states. Validating may go
// straight to Done when no row was accepted, so an all-rejected sheet never
// reaches the backend.
var transitions = map[model.UploadState][]model.UploadState{
	model.StateIdle:       {model.StateReading},
	model.StateReading:    {model.StateValidating, model.StateFailed},
	model.StateValidating: {model.StateSubmitting, model.StateDone},
	model.StateSubmitting: {model.StateDone, model.StateFailed},
	model.StateDone:       {model.StateReading},
	model.StateFailed:     {model.StateReading},
}

func allowed(from, to model.UploadState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Orchestrator struct {
	decoder     Decoder
	partitioner *batch.Partitioner
	submitter   Submitter
	observers   []MutationObserver
	listener    StateListener

	mu     sync.Mutex
	states map[model.EntityKind]model.UploadState

	now func() time.Time
	log zerolog.Logger
}

type Option func(*Orchestrator)

func WithObserver(o MutationObserver) Option {
	return func(orc *Orchestrator) {
		orc.observers = append(orc.observers, o)
	}
}

func WithListener(l StateListener) Option {
	return func(orc *Orchestrator) {
		orc.listener = l
	}
}

func NewOrchestrator(decoder Decoder, partitioner *batch.Partitioner, submitter Submitter, opts ...Option) *Orchestrator {
	orc := &Orchestrator{
		decoder:     decoder,
		partitioner: partitioner,
		submitter:   submitter,
		states:      make(map[model.EntityKind]model.UploadState),
		now:         time.Now,
		log:         logger.Get().With().Str("component", "orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(orc)
	}
	return orc
}

// State returns the current state of kind.
func (o *Orchestrator) State(kind model.EntityKind) model.UploadState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state(kind)
}

func (o *Orchestrator) state(kind model.EntityKind) model.UploadState {
	if s, ok := o.states[kind]; ok {
		return s
	}
	return model.StateIdle
}

// begin claims kind for one run.
func (o *Orchestrator) begin(kind model.EntityKind) error {
	o.mu.Lock()
	current := o.state(kind)
	if current.Busy() {
		o.mu.Unlock()
		return errors.ErrUploadInProgress
	}
	o.states[kind] = model.StateReading
	o.mu.Unlock()

	o.notify(kind, current, model.StateReading)
	return nil
}

func (o *Orchestrator) transition(kind model.EntityKind, to model.UploadState) {
	o.mu.Lock()
	from := o.state(kind)
	if !allowed(from, to) {
		o.mu.Unlock()
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", from, to))
	}
	o.states[kind] = to
	o.mu.Unlock()

	o.notify(kind, from, to)
}

// abandon moves a kind that is still busy to Failed. It runs when a stage
// panics so the kind does not stay claimed.
func (o *Orchestrator) abandon(kind model.EntityKind) {
	o.mu.Lock()
	from := o.state(kind)
	if !from.Busy() {
		o.mu.Unlock()
		return
	}
	o.states[kind] = model.StateFailed
	o.mu.Unlock()

	o.log.Error().Str("kind", string(kind)).Str("from", string(from)).Msg("Upload aborted by panic")
	if o.listener != nil {
		o.listener(kind, from, model.StateFailed)
	}
}

func (o *Orchestrator) notify(kind model.EntityKind, from, to model.UploadState) {
	o.log.Debug().
		Str("kind", string(kind)).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Upload state changed")

	if o.listener != nil {
		o.listener(kind, from, to)
	}
}

// Run takes one file through decode, validation and submission for kind.
// On failure the returned result is still filled in as far as the run got,
// and the error is returned alongside it.
//
// Cancelling ctx does not abort submission. The backend call runs to
// completion or to the client timeout since the batch may already be
// committed.
func (o *Orchestrator) Run(ctx context.Context, kind model.EntityKind, data []byte) (*model.BatchResult, error) {
	if err := o.begin(kind); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			o.abandon(kind)
			panic(r)
		}
	}()

	log := o.log.With().Str("kind", string(kind)).Logger()
	start := time.Now()

	result := &model.BatchResult{
		Kind:           kind,
		RejectedRows:   []model.RejectedRow{},
		ServerRejected: []model.ServerRejected{},
	}

	rows, err := o.decoder.Decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to decode upload")
		return o.fail(kind, result, err), err
	}

	o.transition(kind, model.StateValidating)
	part := o.partitioner.Partition(kind, rows)
	result.TotalRows = len(rows)
	result.RejectedRows = part.Rejected

	log.Info().
		Int("rows", len(rows)).
		Int("accepted", len(part.Accepted)).
		Int("rejected", len(part.Rejected)).
		Msg("Rows validated")

	if len(part.Accepted) == 0 {
		o.transition(kind, model.StateDone)
		result.State = model.StateDone
		return result, nil
	}

	o.transition(kind, model.StateSubmitting)
	submitCtx := context.WithoutCancel(ctx)
	submitted, err := o.submitter.Submit(submitCtx, kind, part.Accepted)
	if err != nil {
		log.Error().Err(err).Int("batch_size", len(part.Accepted)).Msg("Batch submission failed")
		return o.fail(kind, result, err), err
	}

	result.AcceptedCount = submitted.AcceptedCount
	if submitted.ServerRejected != nil {
		result.ServerRejected = submitted.ServerRejected
	}

	o.transition(kind, model.StateDone)
	result.State = model.StateDone

	log.Info().
		Int("accepted", result.AcceptedCount).
		Int("server_rejected", len(result.ServerRejected)).
		Dur("duration", time.Since(start)).
		Msg("Upload completed")

	if result.AcceptedCount > 0 {
		o.publish(submitCtx, model.MutationEvent{
			Kind:          kind,
			AcceptedCount: result.AcceptedCount,
			At:            o.now(),
		})
	}

	return result, nil
}

func (o *Orchestrator) fail(kind model.EntityKind, result *model.BatchResult, err error) *model.BatchResult {
	o.transition(kind, model.StateFailed)
	result.State = model.StateFailed
	result.Error = err.Error()
	return result
}

func (o *Orchestrator) publish(ctx context.Context, event model.MutationEvent) {
	for _, obs := range o.observers {
		if err := obs.OnMutation(ctx, event); err != nil {
			o.log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("Mutation observer failed")
		}
	}
}

// IsDecodeError reports whether err came from an unreadable upload.
func IsDecodeError(err error) bool {
	return stderrors.Is(err, errors.ErrUnreadableFile)
}

// IsSubmissionError reports whether err is a failed backend call.
func IsSubmissionError(err error) bool {
	var subErr errors.SubmissionError
	return stderrors.As(err, &subErr)
}
