package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"onduty-admin/internal/config"
	"onduty-admin/internal/logger"

	"github.com/rs/zerolog"
)

// SessionProvider yields the cookie that authenticates backend calls.
type SessionProvider interface {
	Cookie(ctx context.Context) (*http.Cookie, error)
	Invalidate()
}

// StaticSession replays a cookie taken from configuration.
type StaticSession struct {
	cookie *http.Cookie
}

func NewStaticSession(name, value string) *StaticSession {
	return &StaticSession{cookie: &http.Cookie{Name: name, Value: value}}
}

func (s *StaticSession) Cookie(context.Context) (*http.Cookie, error) {
	return s.cookie, nil
}

func (s *StaticSession) Invalidate() {}

// SessionManager signs in with email credentials and caches the session
// cookie until it expires.
type SessionManager struct {
	cfg       *config.BackendConfig
	client    *http.Client
	cookie    *http.Cookie
	expiresAt time.Time
	mu        sync.RWMutex
	log       zerolog.Logger
}

func NewSessionManager(cfg *config.BackendConfig) *SessionManager {
	return &SessionManager{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.Get(),
	}
}

func (m *SessionManager) Cookie(ctx context.Context) (*http.Cookie, error) {
	m.mu.RLock()
	if m.valid() {
		cookie := m.cookie
		m.mu.RUnlock()
		return cookie, nil
	}
	m.mu.RUnlock()

	return m.signIn(ctx)
}

func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	m.cookie = nil
	m.mu.Unlock()
}

func (m *SessionManager) valid() bool {
	return m.cookie != nil && time.Now().Before(m.expiresAt.Add(-30*time.Second))
}

func (m *SessionManager) signIn(ctx context.Context) (*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double check after acquiring write lock
	if m.valid() {
		return m.cookie, nil
	}

	m.log.Debug().Str("email", m.cfg.Email).Msg("Signing in to backend")

	jsonData, err := json.Marshal(map[string]string{
		"email":    m.cfg.Email,
		"password": m.cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-in data: %w", err)
	}

	url := m.cfg.AuthURL + m.cfg.SignInEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sign-in failed with status: %d", resp.StatusCode)
	}

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == m.cfg.SessionCookieName {
			session = c
			break
		}
	}
	if session == nil || session.Value == "" {
		return nil, fmt.Errorf("sign-in response carried no %s cookie", m.cfg.SessionCookieName)
	}

	expiresAt := time.Now().Add(m.cfg.SessionExpires)
	switch {
	case session.MaxAge > 0:
		expiresAt = time.Now().Add(time.Duration(session.MaxAge) * time.Second)
	case !session.Expires.IsZero():
		expiresAt = session.Expires
	}

	m.cookie = &http.Cookie{Name: session.Name, Value: session.Value}
	m.expiresAt = expiresAt

	m.log.Debug().Time("expires_at", m.expiresAt).Msg("Backend session established")

	return m.cookie, nil
}

// NewSessionProvider prefers a configured cookie and falls back to signing in.
func NewSessionProvider(cfg *config.BackendConfig) SessionProvider {
	if cfg.SessionCookie != "" {
		return NewStaticSession(cfg.SessionCookieName, cfg.SessionCookie)
	}
	return NewSessionManager(cfg)
}
