package worker

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"sync"
	"testing"
	"time"

	"onduty-admin/internal/model"
	"onduty-admin/internal/queue"
	"onduty-admin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusUpdate struct {
	status model.ImportStatus
	msg    *string
}

type fakeRepo struct {
	mu       sync.Mutex
	statuses []statusUpdate
	saved    *model.BatchResult
	savedAs  model.ImportStatus
}

func (r *fakeRepo) CreateImport(context.Context, *model.ImportRecord) error { return nil }

func (r *fakeRepo) UpdateImportStatus(_ context.Context, _ string, status model.ImportStatus, msg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, statusUpdate{status, msg})
	return nil
}

func (r *fakeRepo) SaveImportResult(_ context.Context, _ string, status model.ImportStatus, result *model.BatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = result
	r.savedAs = status
	return nil
}

func (r *fakeRepo) GetImport(context.Context, string) (*model.ImportRecord, error) {
	return nil, errors.ErrImportNotFound
}

type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func (s *fakeStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, stderrors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Upload(_ context.Context, key string, data io.ReadSeeker) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

type fakeRunner struct {
	result *model.BatchResult
	err    error
	got    []byte
}

func (r *fakeRunner) Run(_ context.Context, _ model.EntityKind, data []byte) (*model.BatchResult, error) {
	r.got = data
	return r.result, r.err
}

type fakeEnqueuer struct {
	jobs []model.ImportJob
}

func (e *fakeEnqueuer) EnqueueImportJob(_ context.Context, job model.ImportJob) error {
	e.jobs = append(e.jobs, job)
	return nil
}

func newTestWorker(runner Runner) (*IngestionWorker, *fakeRepo, *fakeStorage, *fakeEnqueuer) {
	repo := &fakeRepo{}
	store := &fakeStorage{objects: map[string][]byte{"imports/1/s.xlsx": []byte("sheet")}}
	enq := &fakeEnqueuer{}
	w := NewIngestionWorker(repo, store, runner, enq, nil, 1, time.Millisecond)
	return w, repo, store, enq
}

var testJob = model.ImportJob{ImportID: "1", Kind: model.EntityStudent, StorageKey: "imports/1/s.xlsx"}

func TestProcessImportDone(t *testing.T) {
	runner := &fakeRunner{result: &model.BatchResult{Kind: model.EntityStudent, State: model.StateDone, TotalRows: 3, AcceptedCount: 3}}
	w, repo, store, _ := newTestWorker(runner)

	require.NoError(t, w.processImport(context.Background(), testJob))

	assert.Equal(t, []byte("sheet"), runner.got)
	assert.Equal(t, model.ImportStatusProcessing, repo.statuses[0].status)
	assert.Equal(t, model.ImportStatusDone, repo.savedAs)
	assert.Equal(t, 3, repo.saved.AcceptedCount)
	assert.Equal(t, []string{"imports/1/s.xlsx"}, store.deleted)
}

func TestProcessImportFailedRunSavesResult(t *testing.T) {
	runErr := errors.NewDecodeError(stderrors.New("not a spreadsheet container"))
	runner := &fakeRunner{result: &model.BatchResult{State: model.StateFailed, Error: runErr.Error()}, err: runErr}
	w, repo, store, _ := newTestWorker(runner)

	err := w.processImport(context.Background(), testJob)
	assert.ErrorIs(t, err, errors.ErrUnreadableFile)
	assert.Equal(t, model.ImportStatusFailed, repo.savedAs)
	assert.Len(t, store.deleted, 1)
}

func TestProcessImportRequeuesWhenInProgress(t *testing.T) {
	w, repo, store, enq := newTestWorker(&fakeRunner{err: errors.ErrUploadInProgress})

	require.NoError(t, w.processImport(context.Background(), testJob))

	assert.Equal(t, []model.ImportJob{testJob}, enq.jobs)
	assert.Equal(t, model.ImportStatusQueued, repo.statuses[len(repo.statuses)-1].status)
	assert.Nil(t, repo.saved)
	assert.Empty(t, store.deleted)
}

func TestProcessImportDownloadFailure(t *testing.T) {
	w, repo, _, _ := newTestWorker(&fakeRunner{})
	job := testJob
	job.StorageKey = "missing"

	require.Error(t, w.processImport(context.Background(), job))
	last := repo.statuses[len(repo.statuses)-1]
	assert.Equal(t, model.ImportStatusFailed, last.status)
	require.NotNil(t, last.msg)
	assert.Contains(t, *last.msg, "no such key")
}

func TestHandleMessageRejectsBadPayload(t *testing.T) {
	w, _, _, _ := newTestWorker(&fakeRunner{})

	assert.Error(t, w.handleMessage(context.Background(), []byte("{")))
	assert.Error(t, w.handleMessage(context.Background(), []byte(`{"kind":"student"}`)))
}

func TestHandleMessagePoolFull(t *testing.T) {
	w, _, _, _ := newTestWorker(&fakeRunner{})
	msg := []byte(`{"import_id":"1","kind":"student","storage_key":"imports/1/s.xlsx"}`)

	// pool not started; capacity is two jobs
	require.NoError(t, w.handleMessage(context.Background(), msg))
	require.NoError(t, w.handleMessage(context.Background(), msg))
	assert.ErrorIs(t, w.handleMessage(context.Background(), msg), errors.ErrPoolFull)
}

type oneShotConsumer struct {
	payload   []byte
	delivered chan struct{}
}

func (c *oneShotConsumer) ConsumeImportQueue(ctx context.Context, handler queue.MessageHandler) error {
	err := handler(ctx, c.payload)
	close(c.delivered)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

type gatedRunner struct {
	release chan struct{}
	ctxErr  error
}

func (r *gatedRunner) Run(ctx context.Context, _ model.EntityKind, _ []byte) (*model.BatchResult, error) {
	<-r.release
	r.ctxErr = ctx.Err()
	return &model.BatchResult{State: model.StateDone, TotalRows: 1, AcceptedCount: 1}, nil
}

func TestStopDrainsJobsTakenFromQueue(t *testing.T) {
	payload, err := json.Marshal(testJob)
	require.NoError(t, err)

	repo := &fakeRepo{}
	store := &fakeStorage{objects: map[string][]byte{testJob.StorageKey: []byte("sheet")}}
	runner := &gatedRunner{release: make(chan struct{})}
	consumer := &oneShotConsumer{payload: payload, delivered: make(chan struct{})}
	w := NewIngestionWorker(repo, store, runner, &fakeEnqueuer{}, consumer, 1, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan error, 1)
	go func() { started <- w.Start(ctx) }()

	<-consumer.delivered
	cancel()
	assert.ErrorIs(t, <-started, context.Canceled)

	close(runner.release)
	w.Stop()

	assert.NoError(t, runner.ctxErr)
	assert.Equal(t, model.ImportStatusDone, repo.savedAs)
	assert.Equal(t, []string{testJob.StorageKey}, store.deleted)
}
