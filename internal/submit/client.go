package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"onduty-admin/internal/config"
	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/pkg/errors"

	"github.com/rs/zerolog"
)

// Client talks to the tRPC backend that owns students, subjects and teachers.
type Client struct {
	cfg        *config.BackendConfig
	httpClient *http.Client
	session    SessionProvider
	log        zerolog.Logger
}

func NewClient(cfg *config.BackendConfig, session SessionProvider) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		session: session,
		log:     logger.Get().With().Str("component", "submitter").Logger(),
	}
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *model.TRPCError `json:"error"`
}

// post sends payload to endpoint and returns the "data" member of a 2xx
// response. Everything else becomes a SubmissionError.
func (c *Client) post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	cookie, err := c.session.Cookie(ctx)
	if err != nil {
		return nil, errors.NewSubmissionError(err, 0, "failed to get backend session")
	}

	url := c.cfg.BaseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewSubmissionError(err, 0, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewSubmissionError(err, resp.StatusCode, "failed to read response")
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			// the next run signs in again
			c.session.Invalidate()
		}
		message := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Error != nil && env.Error.Message != "" {
			message = env.Error.Message
		}
		return nil, errors.NewSubmissionError(nil, resp.StatusCode, message)
	}

	if decodeErr != nil {
		return nil, errors.NewSubmissionError(decodeErr, resp.StatusCode, "failed to decode response")
	}
	if env.Result == nil {
		return nil, errors.NewSubmissionError(nil, resp.StatusCode, "response has no result")
	}

	return env.Result.Data, nil
}

// AssignRole attaches a teacher to the scope described by ra. Callers
// validate ra first.
func (c *Client) AssignRole(ctx context.Context, ra model.RoleAssignment) error {
	c.log.Debug().
		Str("role", string(ra.Role())).
		Str("teacher_id", ra.Teacher()).
		Msg("Assigning teacher role")

	if _, err := c.post(ctx, c.cfg.AssignRoleEndpoint, ra); err != nil {
		return err
	}

	c.log.Info().
		Str("role", string(ra.Role())).
		Str("teacher_id", ra.Teacher()).
		Msg("Teacher role assigned")
	return nil
}
