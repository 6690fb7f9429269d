package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/models"
)

// AuthService composes the credential verifier, attempt tracker, token
// manager, session store and audit log into the two operations the
// dashboard consumes: authenticate and validate-session.
type AuthService struct {
	creds    *CredentialService
	attempts *AttemptService
	sessions *SessionService
	tokens   *auth.TokenManager
	audit    *AuditService
	timing   *auth.TimingDelay
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	creds *CredentialService,
	attempts *AttemptService,
	sessions *SessionService,
	tokens *auth.TokenManager,
	audit *AuditService,
	timing *auth.TimingDelay,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		creds:    creds,
		attempts: attempts,
		sessions: sessions,
		tokens:   tokens,
		audit:    audit,
		timing:   timing,
		logger:   logger,
	}
}

// AuthResponse represents the result of a successful authentication
type AuthResponse struct {
	Token     string            `json:"token"`
	User      *models.AdminUser `json:"user"`
	ExpiresIn int64             `json:"expires_in"` // seconds until absolute token expiry
}

// Authenticate runs the login flow. The lockout check happens before any
// credential verification; a locked username is rejected without touching
// the password at all.
func (s *AuthService) Authenticate(ctx context.Context, username, password string, client models.ClientContext) (*AuthResponse, error) {
	start := time.Now()
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		s.logger.InfoContext(ctx, "login attempt with empty credentials")
		s.timing.WaitFrom(start)
		return nil, models.ErrInvalidCredentials
	}

	if s.attempts.IsLockedOut(username) {
		remaining := s.attempts.LockoutRemaining(username)
		s.logger.WarnContext(ctx, "login rejected: account locked",
			slog.String("username", username),
			slog.Duration("lockout_remaining", remaining))
		return nil, &models.AccountLockedError{Remaining: remaining}
	}

	if !s.creds.Verify(username, password) {
		s.logger.InfoContext(ctx, "login failed: invalid credentials")
		s.attempts.RecordFailure(username, client)
		s.timing.WaitFrom(start)
		return nil, models.ErrInvalidCredentials
	}

	s.attempts.RecordSuccess(username)

	user := s.creds.Identity()
	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.sessions.Create(token, user.Username, user.Role)

	s.audit.Append(AuditRecord{
		Event:     models.AuditEventLoginSuccess,
		Username:  user.Username,
		Client:    client,
		SessionID: TokenFingerprint(token),
	})
	s.logger.InfoContext(ctx, "admin logged in", slog.String("username", user.Username))

	return &AuthResponse{
		Token:     token,
		User:      &user,
		ExpiresIn: int64(s.tokens.Expiry().Seconds()),
	}, nil
}

// ValidateSession resolves a token to its live session. It returns nil on
// any failure — missing, expired, idle-timed-out and tampered tokens are
// indistinguishable to the caller.
func (s *AuthService) ValidateSession(token string) *models.Session {
	if token == "" {
		return nil
	}
	return s.sessions.Validate(token)
}

// Logout destroys the session for a token. Unknown tokens are a no-op.
func (s *AuthService) Logout(token string) {
	s.sessions.Destroy(token)
}

// RemainingAttempts reports how many login attempts are left for a username
func (s *AuthService) RemainingAttempts(username string) int {
	return s.attempts.Remaining(strings.TrimSpace(username))
}

// LockoutRemaining reports the time left in an active lockout window
func (s *AuthService) LockoutRemaining(username string) time.Duration {
	return s.attempts.LockoutRemaining(strings.TrimSpace(username))
}
