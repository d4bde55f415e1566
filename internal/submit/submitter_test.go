package submit

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onduty-admin/internal/config"
	"onduty-admin/internal/model"
	"onduty-admin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend(t *testing.T, baseURL string) *config.BackendConfig {
	t.Helper()
	cfg := &config.Config{Backend: config.BackendConfig{BaseURL: baseURL, Timeout: 5 * time.Second}}
	require.NoError(t, cfg.Validate())
	return &cfg.Backend
}

func students(n int) []model.CandidateRecord {
	records := make([]model.CandidateRecord, n)
	for i := range records {
		records[i] = model.CandidateRecord{
			Kind:     model.EntityStudent,
			RowIndex: i + 2,
			Fields: map[string]any{
				"regNo":    fmt.Sprintf("REG%d", i+1),
				"rollno":   i + 1,
				"name":     "Student",
				"year":     "1",
				"section":  "A",
				"semester": "1",
				"batch":    "2025",
			},
		}
	}
	return records
}

func TestSubmitDuplicateRegNo(t *testing.T) {
	var received []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user.student.createMany", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		cookie, err := r.Cookie("better-auth.session_token")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cookie.Value)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		io.WriteString(w, `{"result":{"data":{"count":4,"failed":[{"key":"REG3","reason":"Registration number already exists"}]}}}`)
	}))
	defer srv.Close()

	cfg := testBackend(t, srv.URL)
	client := NewClient(cfg, NewStaticSession(cfg.SessionCookieName, "s3cret"))

	records := students(5)
	result, err := client.Submit(context.Background(), model.EntityStudent, records)
	require.NoError(t, err)

	assert.Len(t, received, 5)
	assert.Equal(t, "REG1", received[0]["regNo"])
	assert.NotContains(t, received[0], "RowIndex")

	assert.Equal(t, 4, result.AcceptedCount)
	require.Len(t, result.ServerRejected, 1)
	assert.Equal(t, 4, result.ServerRejected[0].RowIndex)
	assert.Equal(t, "REG3", result.ServerRejected[0].Record.Key())
	assert.Equal(t, "Registration number already exists", result.ServerRejected[0].Reason)
	assert.Equal(t, len(records), result.AcceptedCount+len(result.ServerRejected))
}

func TestSubmitBareArrayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result":{"data":[{"id":"1"},{"id":"2"}]}}`)
	}))
	defer srv.Close()

	cfg := testBackend(t, srv.URL)
	result, err := NewClient(cfg, NewStaticSession(cfg.SessionCookieName, "x")).
		Submit(context.Background(), model.EntityStudent, students(2))
	require.NoError(t, err)
	assert.Equal(t, 2, result.AcceptedCount)
	assert.Empty(t, result.ServerRejected)
}

func TestSubmitNon2xxIsSubmissionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"database unavailable","code":-32603,"data":{"code":"INTERNAL_SERVER_ERROR","httpStatus":500}}}`)
	}))
	defer srv.Close()

	cfg := testBackend(t, srv.URL)
	records := students(3)
	before := fmt.Sprint(records)

	_, err := NewClient(cfg, NewStaticSession(cfg.SessionCookieName, "x")).
		Submit(context.Background(), model.EntityStudent, records)
	require.Error(t, err)

	var subErr errors.SubmissionError
	require.True(t, stderrors.As(err, &subErr))
	assert.Equal(t, http.StatusInternalServerError, subErr.Status)
	assert.Equal(t, "database unavailable", subErr.Message)
	assert.Equal(t, before, fmt.Sprint(records))
}

func TestSubmitTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := testBackend(t, url)
	_, err := NewClient(cfg, NewStaticSession(cfg.SessionCookieName, "x")).
		Submit(context.Background(), model.EntitySubject, []model.CandidateRecord{{Kind: model.EntitySubject}})

	var subErr errors.SubmissionError
	require.True(t, stderrors.As(err, &subErr))
	assert.Zero(t, subErr.Status)
	assert.NotNil(t, subErr.Err)
}

func TestSubmitEmptyBatch(t *testing.T) {
	cfg := testBackend(t, "http://unused")
	_, err := NewClient(cfg, NewStaticSession(cfg.SessionCookieName, "x")).
		Submit(context.Background(), model.EntityTeacher, nil)
	assert.ErrorIs(t, err, errors.ErrEmptyBatch)
}

func TestReconcile(t *testing.T) {
	idx := func(i int) *int { return &i }
	records := students(4)
	records[3].Fields["regNo"] = "REG1"

	result := reconcile(records, []model.FailedRecord{
		{Index: idx(1), Reason: "bad"},
		{Index: idx(1), Reason: "claimed twice"},
		{Key: "REG1", Reason: "dup"},
		{Key: "REG1", Reason: "dup"},
		{Key: "missing", Reason: "nobody"},
		{Index: idx(99), Reason: "out of range"},
	})

	require.Len(t, result.ServerRejected, 3)
	assert.Equal(t, 3, result.ServerRejected[0].RowIndex)
	assert.Equal(t, 2, result.ServerRejected[1].RowIndex)
	assert.Equal(t, 5, result.ServerRejected[2].RowIndex)
	assert.Equal(t, 1, result.AcceptedCount)
}

func TestSessionManagerCachesCookie(t *testing.T) {
	signIns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/sign-in/email":
			signIns++
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "admin@example.edu", creds["email"])
			http.SetCookie(w, &http.Cookie{Name: "better-auth.session_token", Value: "tok", MaxAge: 3600})
			io.WriteString(w, `{}`)
		case "/trpc/user.teacher.assignRole":
			cookie, err := r.Cookie("better-auth.session_token")
			require.NoError(t, err)
			assert.Equal(t, "tok", cookie.Value)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "HOD", body["role"])
			io.WriteString(w, `{"result":{"data":{"id":"r1"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := testBackend(t, srv.URL+"/trpc")
	cfg.Email = "admin@example.edu"
	cfg.Password = "pw"

	client := NewClient(cfg, NewSessionProvider(cfg))
	ra := model.HODAssignment{TeacherID: "t-1", DepartmentID: "d-1"}
	require.NoError(t, client.AssignRole(context.Background(), ra))
	require.NoError(t, client.AssignRole(context.Background(), ra))
	assert.Equal(t, 1, signIns)
}

func TestSessionManagerSignInFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testBackend(t, srv.URL+"/trpc")
	_, err := NewSessionManager(cfg).Cookie(context.Background())
	assert.Error(t, err)
}

func TestNewSessionProviderPrefersStaticCookie(t *testing.T) {
	cfg := testBackend(t, "http://backend/trpc")
	cfg.SessionCookie = "abc"

	cookie, err := NewSessionProvider(cfg).Cookie(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "better-auth.session_token", cookie.Name)
	assert.Equal(t, "abc", cookie.Value)
}
