package services

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/models"
)

// SessionService maps issued tokens to live sessions and enforces the idle
// timeout. Sessions are memory-only singletons of the process: a restart
// clears them and the token, while still structurally valid, will not be
// recognized until re-created by a fresh login.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	tokens   *auth.TokenManager
	audit    *AuditService
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(tokens *auth.TokenManager, audit *AuditService, timeout time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions: make(map[string]*models.Session),
		tokens:   tokens,
		audit:    audit,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// SetTimeFunc overrides the clock used for idle-timeout arithmetic
func (s *SessionService) SetTimeFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create inserts a session for a freshly issued token
func (s *SessionService) Create(token, username, role string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &models.Session{
		Username:     username,
		Role:         role,
		LoginTime:    now,
		LastActivity: now,
	}
	s.sessions[token] = session

	out := *session
	return &out
}

// Validate checks a token against the store. Order is fixed: lookup, then
// token verification, then idle check. Any failure evicts the session and
// returns nil; success touches LastActivity and returns the session.
func (s *SessionService) Validate(token string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil
	}

	if _, err := s.tokens.Validate(token); err != nil {
		s.logger.Info("session token failed verification", slog.String("session_id", TokenFingerprint(token)))
		delete(s.sessions, token)
		return nil
	}

	now := s.now()
	if now.Sub(session.LastActivity) > s.timeout {
		delete(s.sessions, token)
		s.audit.Append(AuditRecord{
			Event:    models.AuditEventSessionExpired,
			Username: session.Username,
			Details: models.AuditDetails{
				"idle_minutes": int(now.Sub(session.LastActivity).Minutes()),
			},
			SessionID: TokenFingerprint(token),
		})
		return nil
	}

	session.LastActivity = now

	out := *session
	return &out
}

// Destroy removes a session. The logout event is audited only when a
// session actually existed.
func (s *SessionService) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return
	}

	delete(s.sessions, token)
	s.audit.Append(AuditRecord{
		Event:     models.AuditEventLogout,
		Username:  session.Username,
		SessionID: TokenFingerprint(token),
	})
}

// ActiveCount returns the number of live sessions
func (s *SessionService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// PruneIdle evicts sessions whose idle time exceeds the timeout and
// returns the number removed. Eviction is otherwise lazy on access; the
// background janitor only accelerates it.
func (s *SessionService) PruneIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, session := range s.sessions {
		if now.Sub(session.LastActivity) > s.timeout {
			delete(s.sessions, token)
			s.audit.Append(AuditRecord{
				Event:    models.AuditEventSessionExpired,
				Username: session.Username,
				Details: models.AuditDetails{
					"idle_minutes": int(now.Sub(session.LastActivity).Minutes()),
				},
				SessionID: TokenFingerprint(token),
			})
			removed++
		}
	}
	return removed
}

// TokenFingerprint derives a short, log-safe identifier from a token so
// audit entries never carry the bearer credential itself
func TokenFingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash)[:16]
}
