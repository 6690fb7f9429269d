package services

import (
	"context"
	"testing"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	service  *AuthService
	attempts *AttemptService
	sessions *SessionService
	audit    *AuditService
	clock    *fakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	audit, _ := newTestAudit(1000)
	audit.SetTimeFunc(clock.Now)

	tokens := auth.NewTokenManager(testSecret, 24*time.Hour)
	tokens.SetTimeFunc(clock.Now)

	creds := NewCredentialService(testIdentity("admin", "Correct-Horse-42"))

	attempts := NewAttemptService(DefaultAttemptConfig(), audit, newTestLogger())
	attempts.SetTimeFunc(clock.Now)

	sessions := NewSessionService(tokens, audit, 30*time.Minute, newTestLogger())
	sessions.SetTimeFunc(clock.Now)

	timing := auth.NewTimingDelay(auth.TimingConfig{})

	service := NewAuthService(creds, attempts, sessions, tokens, audit, timing, newTestLogger())

	return &authFixture{
		service:  service,
		attempts: attempts,
		sessions: sessions,
		audit:    audit,
		clock:    clock,
	}
}

func (f *authFixture) authenticate(username, password string) (*AuthResponse, error) {
	return f.service.Authenticate(context.Background(), username, password, models.ClientContext{
		IPAddress: "10.0.0.1",
		UserAgent: "dashboard",
	})
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.authenticate("admin", "Correct-Horse-42")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, "admin", resp.User.Role)
	assert.Equal(t, int64((24 * time.Hour).Seconds()), resp.ExpiresIn)

	// The session is live immediately, with last activity equal to login time
	session := f.service.ValidateSession(resp.Token)
	require.NotNil(t, session)
	assert.Equal(t, session.LoginTime, session.LastActivity)

	assert.Len(t, f.audit.ByEvent(models.AuditEventLoginSuccess), 1)
}

func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.authenticate("admin", "wrong-password")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Equal(t, 4, f.service.RemainingAttempts("admin"))
}

func TestAuthService_Authenticate_UnknownUsername(t *testing.T) {
	f := newAuthFixture(t)

	// Same generic error as a wrong password
	resp, err := f.authenticate("root", "Correct-Horse-42")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Authenticate_EmptyCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.authenticate("", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Empty input is rejected before the attempt tracker is touched
	assert.Equal(t, 5, f.service.RemainingAttempts("admin"))
}

func TestAuthService_LockoutAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)

	// Five wrong passwords in quick succession
	for i := 0; i < 5; i++ {
		_, err := f.authenticate("admin", "wrong-password")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials, "attempt %d", i+1)
	}

	// The sixth call is rejected before any credential check, even with
	// the correct password
	resp, err := f.authenticate("admin", "Correct-Horse-42")
	assert.Nil(t, resp)

	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Equal(t, 15*time.Minute, locked.Remaining)

	assert.Len(t, f.audit.ByEvent(models.AuditEventAccountLocked), 1)
	assert.Empty(t, f.audit.ByEvent(models.AuditEventLoginSuccess))
}

func TestAuthService_LockoutExpiresThenSucceeds(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 5; i++ {
		_, _ = f.authenticate("admin", "wrong-password")
	}
	_, err := f.authenticate("admin", "Correct-Horse-42")
	require.ErrorIs(t, err, models.ErrAccountLocked)

	f.clock.Advance(16 * time.Minute)

	resp, err := f.authenticate("admin", "Correct-Horse-42")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 5, f.service.RemainingAttempts("admin"))
}

func TestAuthService_ValidateSession_TamperedToken(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.authenticate("admin", "Correct-Horse-42")
	require.NoError(t, err)

	// Flip one byte of the signature
	tampered := []byte(resp.Token)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	assert.Nil(t, f.service.ValidateSession(string(tampered)))

	// The genuine token is unaffected
	assert.NotNil(t, f.service.ValidateSession(resp.Token))
}

func TestAuthService_ValidateSession_IdleExpiry(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.authenticate("admin", "Correct-Horse-42")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)

	assert.Nil(t, f.service.ValidateSession(resp.Token))

	expired := f.audit.ByEvent(models.AuditEventSessionExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, "admin", expired[0].Username)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.authenticate("admin", "Correct-Horse-42")
	require.NoError(t, err)

	f.service.Logout(resp.Token)
	assert.Nil(t, f.service.ValidateSession(resp.Token))
	assert.Len(t, f.audit.ByEvent(models.AuditEventLogout), 1)

	// Logging out an unknown token is a no-op
	f.service.Logout("never-issued")
	assert.Len(t, f.audit.ByEvent(models.AuditEventLogout), 1)
}

func TestAuthService_ValidateSession_EmptyToken(t *testing.T) {
	f := newAuthFixture(t)
	assert.Nil(t, f.service.ValidateSession(""))
}

func TestAuthService_SuccessResetsAttempts(t *testing.T) {
	f := newAuthFixture(t)

	_, _ = f.authenticate("admin", "wrong-password")
	_, _ = f.authenticate("admin", "wrong-password")
	require.Equal(t, 3, f.service.RemainingAttempts("admin"))

	_, err := f.authenticate("admin", "Correct-Horse-42")
	require.NoError(t, err)
	assert.Equal(t, 5, f.service.RemainingAttempts("admin"))
}
