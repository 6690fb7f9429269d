package handlers

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/models"
	"github.com/culthread/backoffice/internal/repositories"
	"github.com/culthread/backoffice/internal/services"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "handler-test-signing-secret-0123456789"
	testPassword = "Correct-Horse-42"
)

// testStack is a fully wired service stack over in-memory stores
type testStack struct {
	Auth  *services.AuthService
	Audit *services.AuditService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := repositories.NewMemoryAuditStore()
	audit := services.NewAuditService(store, 1000, logger)

	tokens := auth.NewTokenManager(testSecret, 24*time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	creds := services.NewCredentialService(models.AdminIdentity{
		Username:     "admin",
		Role:         "admin",
		PasswordHash: string(hash),
	})

	attempts := services.NewAttemptService(services.DefaultAttemptConfig(), audit, logger)
	sessions := services.NewSessionService(tokens, audit, 30*time.Minute, logger)
	timing := auth.NewTimingDelay(auth.TimingConfig{})

	return &testStack{
		Auth:  services.NewAuthService(creds, attempts, sessions, tokens, audit, timing, logger),
		Audit: audit,
	}
}
