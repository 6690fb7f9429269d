package services

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/culthread/backoffice/internal/models"
	"github.com/culthread/backoffice/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// fakeClock is a controllable clock for time-dependent tests
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAudit(maxEntries int) (*AuditService, *repositories.MemoryAuditStore) {
	store := repositories.NewMemoryAuditStore()
	return NewAuditService(store, maxEntries, newTestLogger()), store
}

// testHash produces a bcrypt hash at minimum cost to keep tests fast
func testHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func testIdentity(username, password string) models.AdminIdentity {
	return models.AdminIdentity{
		Username:     username,
		Role:         "admin",
		PasswordHash: testHash(password),
	}
}
