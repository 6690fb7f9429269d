package config

import (
	"testing"
	"time"

	pkgauth "github.com/culthread/backoffice/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TOKEN_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$12$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvabcdefghi")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins, "development allows local dashboard origins")

	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, "admin", cfg.Auth.AdminRole)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTimeout)

	assert.Equal(t, "backoffice-audit.json", cfg.Audit.FilePath)
	assert.Equal(t, 1000, cfg.Audit.MaxEntries)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("LOCKOUT_DURATION", "5m")
	t.Setenv("SESSION_TIMEOUT", "10m")
	t.Setenv("AUDIT_MAX_ENTRIES", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 10*time.Minute, cfg.Auth.SessionTimeout)
	assert.Equal(t, 50, cfg.Audit.MaxEntries)
}

func TestLoad_MissingTokenSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ShortTokenSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "short")
	t.Setenv("ADMIN_PASSWORD_HASH", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("TOKEN_SECRET", "twenty-characters-ok")
	t.Setenv("ADMIN_PASSWORD_HASH", "x")

	_, err := Load()
	assert.Error(t, err, "20 characters is below the production minimum")
}

func TestLoad_MissingAdminCredential(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PlaintextAdminPasswordIsHashed(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "Backoffice2024x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEqual(t, "Backoffice2024x", cfg.Auth.AdminPasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(cfg.Auth.AdminPasswordHash, "Backoffice2024x"))
}

func TestLoad_WeakAdminPasswordRejected(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "Password123!")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidAuditCap(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUDIT_MAX_ENTRIES", "-1")

	_, err := Load()
	assert.Error(t, err)
}
